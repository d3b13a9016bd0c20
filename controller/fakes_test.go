package controller

import (
	"context"
	"errors"
	"sync"

	ble_mod "github.com/go-ble/ble"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/robertof/go-squegg-meter/device/squegg"
)

type fakeAdvertisement struct {
	name string
	addr ble_mod.Addr
}

func (f fakeAdvertisement) LocalName() string                   { return f.name }
func (f fakeAdvertisement) ManufacturerData() []byte            { return nil }
func (f fakeAdvertisement) ServiceData() []ble_mod.ServiceData  { return nil }
func (f fakeAdvertisement) Services() []ble_mod.UUID            { return nil }
func (f fakeAdvertisement) OverflowService() []ble_mod.UUID     { return nil }
func (f fakeAdvertisement) TxPowerLevel() int                   { return 0 }
func (f fakeAdvertisement) Connectable() bool                   { return true }
func (f fakeAdvertisement) SolicitedService() []ble_mod.UUID    { return nil }
func (f fakeAdvertisement) RSSI() int                           { return -60 }
func (f fakeAdvertisement) Addr() ble_mod.Addr                  { return f.addr }

type fakeCentral struct {
	mu sync.Mutex

	findErr    error
	dialErr    error
	peripheral *fakePeripheral

	finds, dials int
	lastOptions  ble.DeviceOptions
}

func (c *fakeCentral) FindDevice(ctx context.Context, opts ble.DeviceOptions) (ble.Advertisement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finds += 1
	c.lastOptions = opts

	if c.findErr != nil {
		return nil, c.findErr
	}

	return fakeAdvertisement{name: "Squegg-42", addr: ble_mod.NewAddr("c4:7f:51:0a:11:22")}, nil
}

func (c *fakeCentral) Dial(ctx context.Context, addr ble.Addr) (Peripheral, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dials += 1

	if c.dialErr != nil {
		return nil, c.dialErr
	}

	return c.peripheral, nil
}

func (c *fakeCentral) counts() (finds, dials int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.finds, c.dials
}

type fakePeripheral struct {
	mu sync.Mutex

	services       []*ble.Service
	servicesErr    error
	chars          []*ble.Characteristic
	charsErr       error
	descriptorsErr error
	subscribeErr   error

	handler    ble.NotificationHandler
	indicate   bool
	cancelled  int
	discovered []string
}

// newSqueggPeripheral exposes the default squegg profile.
func newSqueggPeripheral() *fakePeripheral {
	return &fakePeripheral{
		services: []*ble.Service{
			{UUID: ble.UUID16(0x180f)},
			{UUID: squegg.DefaultServiceUUID},
		},
		chars: []*ble.Characteristic{
			{UUID: squegg.DefaultCharacteristicUUID, Property: ble.CharNotify},
		},
	}
}

func (p *fakePeripheral) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.discovered = append(p.discovered, "services")
	return p.services, p.servicesErr
}

func (p *fakePeripheral) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s == nil {
		return nil, errors.New("nil service")
	}

	p.discovered = append(p.discovered, "characteristics")
	return p.chars, p.charsErr
}

func (p *fakePeripheral) DiscoverDescriptors(filter []ble.UUID, c *ble.Characteristic) ([]*ble.Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.discovered = append(p.discovered, "descriptors")

	if p.descriptorsErr != nil {
		return nil, p.descriptorsErr
	}

	c.CCCD = &ble.Descriptor{UUID: ble.UUID16(0x2902)}
	return []*ble.Descriptor{c.CCCD}, nil
}

func (p *fakePeripheral) Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.subscribeErr != nil {
		return p.subscribeErr
	}

	if c.CCCD == nil {
		return errors.New("CCCD not found")
	}

	p.handler = h
	p.indicate = ind
	return nil
}

func (p *fakePeripheral) CancelConnection() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelled += 1
	return nil
}

// notify delivers a notification the way the BLE stack does, from its own goroutine.
func (p *fakePeripheral) notify(payloads ...string) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()

	for _, payload := range payloads {
		h([]byte(payload))
	}
}

func (p *fakePeripheral) cancellations() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cancelled
}
