package main

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/robertof/go-squegg-meter/utils"
)

const discoveryDuration = 5 * time.Second

type discoveredDevice struct {
  name string
  connectable bool
  services map[string]bool
  rssi int
  // the configured device would pick this one.
  matches bool
}

func (d *discoveredDevice) merge(a ble.Advertisement, opts ble.DeviceOptions) {
  if d.services == nil {
    d.services = make(map[string]bool)
  }

  if d.name == "" {
    d.name = a.LocalName()
  }

  d.connectable = a.Connectable()
  d.rssi = a.RSSI()
  d.matches = d.matches || opts.Matches(a)

  for _, uuid := range a.Services() {
    d.services[uuid.String()] = true
  }
}

func (d *discoveredDevice) serviceList() []string {
  services := maps.Keys(d.services)
  sort.Strings(services)

  return services
}

func doDeviceDiscovery(cfg config) {
  log.Info().
    Dur("DurationSec", discoveryDuration).
    Msg("Starting in device discovery mode - collecting devices...")

  handle, err := ble.Init(cfg.BluetoothDeviceId, ble.FlagScanTypeActive)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  defer handle.Stop()

  ctx := ble.WrapContextWithSigHandler(
    context.WithTimeout(
      context.Background(),
      discoveryDuration,
    ),
  )

  opts := cfg.Device.Options()
  devices := make(map[string]*discoveredDevice)

  err = handle.ScanAll(ctx, func(a ble.Advertisement) {
    addr := a.Addr().String()

    info, ok := devices[addr]
    if !ok {
      info = &discoveredDevice{}
      devices[addr] = info
    }

    info.merge(a, opts)

    log.Debug().
      Str("Addr", addr).
      Str("Name", a.LocalName()).
      Bool("Connectable", a.Connectable()).
      Int("RSSI", a.RSSI()).
      Strs("Services", info.serviceList()).
      Hex("ManufacturerData", a.ManufacturerData()).
      Msg("Received device advertisement")
  })

  if err != nil && !utils.IsContextDone(err) {
    log.Fatal().Err(err).Msg("Failed to initiate scan")
  }

  addrs := maps.Keys(devices)
  sort.Strings(addrs)

  log.Info().Int("Found", len(devices)).Msg("Finished device discovery")

  matching := 0

  for _, addr := range addrs {
    data := devices[addr]

    if data.matches {
      matching += 1
    }

    log.Info().
      Str("Addr", addr).
      Str("Name", data.name).
      Bool("Connectable", data.connectable).
      Int("RSSI", data.rssi).
      Strs("Services", data.serviceList()).
      Bool("MatchesDevice", data.matches).
      Msg("Found device")
  }

  if matching == 0 {
    log.Warn().Stringer("Options", opts).Msg("No device matches the configured options")
  } else {
    log.Info().
      Int("Matching", matching).
      Stringer("Device", cfg.Device).
      Msg("Use the addr= field of the device spec to pin one of the matching devices")
  }
}
