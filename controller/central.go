package controller

import (
	"context"

	"github.com/robertof/go-squegg-meter/ble"
)

// Peripheral is the subset of a GATT client the connect sequence needs. ble.Client satisfies it.
type Peripheral interface {
	DiscoverServices(filter []ble.UUID) ([]*ble.Service, error)
	DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error)
	DiscoverDescriptors(filter []ble.UUID, c *ble.Characteristic) ([]*ble.Descriptor, error)
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	CancelConnection() error
}

// Central finds and connects to peripherals.
type Central interface {
	FindDevice(ctx context.Context, opts ble.DeviceOptions) (ble.Advertisement, error)
	Dial(ctx context.Context, addr ble.Addr) (Peripheral, error)
}

type hciCentral struct {
	handle *ble.Handle
}

// NewHCICentral uses the local HCI adapter.
func NewHCICentral(h *ble.Handle) Central {
	return hciCentral{handle: h}
}

func (c hciCentral) FindDevice(ctx context.Context, opts ble.DeviceOptions) (ble.Advertisement, error) {
	return c.handle.FindDevice(ctx, opts)
}

func (c hciCentral) Dial(ctx context.Context, addr ble.Addr) (Peripheral, error) {
	client, err := c.handle.Connect(ctx, addr)

	if err != nil {
		return nil, err
	}

	return client, nil
}
