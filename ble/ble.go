package ble

import (
  "fmt"
  "net"

  "github.com/go-ble/ble"
  "github.com/go-ble/ble/linux"
  "github.com/go-ble/ble/linux/hci/cmd"
  "github.com/prometheus/client_golang/prometheus"
  "github.com/robertof/go-squegg-meter/utils"
  "github.com/rs/zerolog/log"
)

type Addr = ble.Addr
type Advertisement = ble.Advertisement
type Characteristic = ble.Characteristic
type Client = ble.Client
type Descriptor = ble.Descriptor
type NotificationHandler = ble.NotificationHandler
type Service = ble.Service
type UUID = ble.UUID

// Handle wraps the local HCI adapter used for both scanning and connecting.
type Handle struct {
  dev *linux.Device
}

func UUID16(i uint16) UUID {
  return ble.UUID16(i)
}

func ParseUUID(s string) (UUID, error) {
  u, err := ble.Parse(s)

  if err != nil {
    return nil, fmt.Errorf("invalid UUID %q: %w", s, err)
  }

  return u, nil
}

func MustParseUUID(s string) UUID {
  return ble.MustParse(s)
}

func NewAddr(s string) Addr {
  return ble.NewAddr(s)
}

func RegisterMetrics(reg prometheus.Registerer) {
  reg.MustRegister(
    successfulConnectionsCounter,
    failedConnectionsCounter,
    disconnectsCounter,
    scanMatchesCounter,
  )
}

func Init(deviceId int, flags Flags) (*Handle, error) {
  return InitWithConnParams(deviceId, ConnParamsLowLatency, flags)
}

func InitWithConnParams(deviceId int, connParams ConnParams, flags Flags) (*Handle, error) {
  scanType := flags.scanType()
  filterPolicy := flags.filterPolicy()

  log.Debug().
    Stringer("ScanType", scanType).
    Stringer("FilterPolicy", filterPolicy).
    Stringer("ConnParams", &connParams).
    Stringer("Flags", flags).
    Int("DeviceID", deviceId).
    Msg("Initializing Bluetooth device")

  dev, err := linux.NewDevice(
    ble.OptDeviceID(deviceId),
    ble.OptScanParams(cmd.LESetScanParameters{
      LEScanType:           uint8(scanType),     // 0x00: passive, 0x01: active
      LEScanInterval:       0x0010,              // 0x0004 - 0x4000; N * 0.625msec
      LEScanWindow:         0x0010,              // 0x0004 - 0x4000; N * 0.625msec
      OwnAddressType:       0x00,                // 0x00: public, 0x01: random
      ScanningFilterPolicy: uint8(filterPolicy), // 0x00: accept all, 0x01: ignore non-allow-listed.
    }),
    ble.OptConnParams(connParams.AdapterOptions()),
  )

  if err != nil {
    return nil, fmt.Errorf("failed to init bluetooth device: %w", err)
  }

  ble.SetDefaultDevice(dev)

  return &Handle{dev: dev}, nil
}

// Restrict scans to the given addresses. Only effective if the handle was initialized with
// FlagEnableDeviceAllowList.
func (h *Handle) SetAllowListedAddresses(a []net.HardwareAddr) error {
  log.Debug().
    Array("DeviceAddresses", utils.ToZeroLogArray(a)).
    Msg("Allow-listing the requested Bluetooth devices")

  var res cmd.LEClearWhiteListRP

  if err := h.dev.HCI.Send(&cmd.LEClearWhiteList{}, &res); err != nil {
    return fmt.Errorf("failed to clear allow-list: %w", err)
  }

  if res.Status != 0 {
    return fmt.Errorf("failed to clear allow-list: got status: %v", res.Status)
  }

  for _, addr := range a {
    if len(addr) != 6 {
      return fmt.Errorf("cannot allow-list %q: not a 6 byte MAC address", addr.String())
    }

    var res cmd.LEAddDeviceToWhiteListRP

    err := h.dev.HCI.Send(&cmd.LEAddDeviceToWhiteList{
      AddressType: 0x00, // public
      Address:     reverseAddr(addr),
    }, &res)

    if err != nil {
      return fmt.Errorf("failed to allow-list device %q: %w", addr.String(), err)
    }

    if res.Status != 0 {
      return fmt.Errorf("failed to allow-list device %q: got status: %v", addr.String(), res.Status)
    }
  }

  return nil
}

// HCI expects addresses in little-endian order.
func reverseAddr(addr net.HardwareAddr) (out [6]byte) {
  for i := range out {
    out[i] = addr[len(out)-1-i]
  }

  return out
}

func (h *Handle) Stop() {
  if err := h.dev.Stop(); err != nil {
    log.Warn().Err(err).Msg("ble: failed to stop HCI device")
  }
}

const (
  CharNotify = ble.CharNotify
  CharIndicate = ble.CharIndicate
)
