package squegg

import (
  "fmt"
  "net"

  "github.com/robertof/go-squegg-meter/ble"
  "github.com/robertof/go-squegg-meter/device"
)

const (
  DefaultName = "squegg"
  // Every squegg advertises a local name starting with this.
  AdvertisedNamePrefix = "Squegg"
)

var (
  // UART-style service exposed by the squegg's BLE module.
  DefaultServiceUUID = ble.MustParseUUID("0000ffe0-0000-1000-8000-00805f9b34fb")
  // Notifying characteristic carrying the strength readings.
  DefaultCharacteristicUUID = ble.MustParseUUID("0000ffe1-0000-1000-8000-00805f9b34fb")
)

type Device struct {
  name string
  addr net.HardwareAddr
  service ble.UUID
  characteristic ble.UUID
}

// New returns a squegg selected by its advertised name, using the default profile.
func New() *Device {
  return &Device{
    name: DefaultName,
    service: DefaultServiceUUID,
    characteristic: DefaultCharacteristicUUID,
  }
}

func (d *Device) Name() string {
  return d.name
}

// Addr is nil unless the device was pinned to an address.
func (d *Device) Addr() net.HardwareAddr {
  return d.addr
}

func (d *Device) Options() ble.DeviceOptions {
  if d.addr != nil {
    return ble.DeviceOptions{Addr: d.addr}
  }

  return ble.DeviceOptions{NamePrefix: AdvertisedNamePrefix}
}

func (d *Device) ServiceUUID() ble.UUID {
  return d.service
}

func (d *Device) CharacteristicUUID() ble.UUID {
  return d.characteristic
}

func (d *Device) Decode(data []byte) (device.Sample, error) {
  return parse(data)
}

func (d *Device) String() string {
  addr := "any"

  if d.addr != nil {
    addr = d.addr.String()
  }

  return fmt.Sprintf("squegg[name=%q, addr=%v, service=%v, characteristic=%v]",
    d.name, addr, d.service, d.characteristic)
}
