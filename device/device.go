package device

import (
	"errors"

	"github.com/robertof/go-squegg-meter/ble"
)

var (
  ErrInvalidData = errors.New("invalid data")
  ErrInvalidSpec = errors.New("invalid device spec")
)

// Device describes a peripheral streaming samples over a notifying characteristic.
type Device interface {
  Name() string
  // Options used to pick the peripheral among the advertisements seen during a scan.
  Options() ble.DeviceOptions
  ServiceUUID() ble.UUID
  CharacteristicUUID() ble.UUID
  // Decode a single notification payload.
  Decode(data []byte) (Sample, error)
  String() string
}

type Factory interface {
  FromSpec(spec DeviceSpec) (Device, error)
}

type FactoryDocs interface {
  Help() string
}
