package squegg

import (
  "fmt"
  "net"
  "strings"

  "github.com/robertof/go-squegg-meter/ble"
  "github.com/robertof/go-squegg-meter/device"
  "github.com/rs/zerolog/log"
)

type Factory struct{}

func (f *Factory) FromSpec(spec device.DeviceSpec) (device.Device, error) {
  d := New()

  if addr := spec.Addr(); addr != "" {
    hwAddr, err := net.ParseMAC(addr)
    if err != nil {
      return nil, fmt.Errorf("%w: invalid addr: %w", device.ErrInvalidSpec, err)
    }

    d.addr = hwAddr
    d.name = "squegg-" + strings.ToLower(strings.ReplaceAll(addr, ":", ""))
  }

  if name := spec.Name(); name != "" {
    d.name = name
  }

  if service := spec.Service(); service != "" {
    uuid, err := ble.ParseUUID(service)
    if err != nil {
      return nil, fmt.Errorf("%w: %w", device.ErrInvalidSpec, err)
    }

    d.service = uuid
  }

  if characteristic := spec.Characteristic(); characteristic != "" {
    uuid, err := ble.ParseUUID(characteristic)
    if err != nil {
      return nil, fmt.Errorf("%w: %w", device.ErrInvalidSpec, err)
    }

    d.characteristic = uuid
  }

  log.Debug().Stringer("Device", d).Msg("squegg: configured device")

  return d, nil
}

func (f *Factory) Help() string {
  return `Supported parameters:
addr (string): MAC address of the squegg. If omitted, the first device advertising as "Squegg" is used
name (string): Name of this squegg in logs, metrics and MQTT topics
service (uuid): GATT service exposing the strength characteristic
characteristic (uuid): Notifying characteristic carrying strength readings`
}
