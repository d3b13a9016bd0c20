package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  cfg := ParseArgs()

  if cfg.Trace || os.Getenv("TRACE") != "" {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug || os.Getenv("DEBUG") != "" {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  if cfg.DiscoverDevices {
    doDeviceDiscovery(cfg)
    return
  }

  out, closeLog, err := cfg.logOutput()
  if err != nil {
    log.Fatal().Err(err).Str("LogFile", cfg.LogFile).Msg("Unable to set up logging")
  }
  defer closeLog()

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: out,
    TimeFormat: "15:04:05.000",
    NoColor: out != os.Stderr,
  })

  log.Info().
    Str("BindAddr", cfg.BindAddress).
    Stringer("Device", cfg.Device).
    Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
    Stringer("ConnParams", &cfg.BluetoothConnParams).
    Float64("GripThreshold", cfg.GripThreshold).
    Stringer("GripEvaluation", cfg.GripEvaluation).
    Bool("Headless", cfg.Headless).
    Msg("Starting with the specified configuration")

  bleHandle := initBle(cfg)
  defer bleHandle.Stop()

  ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
  defer stop()

  if err := run(ctx, cfg, bleHandle); err != nil {
    log.Error().Err(err).Msg("Terminated with an error")
    closeLog()
    bleHandle.Stop()
    os.Exit(1)
  }
}

func initBle(cfg config) *ble.Handle {
  var bleFlags ble.Flags
  opts := cfg.Device.Options()

  if opts.Addr != nil {
    bleFlags |= ble.FlagEnableDeviceAllowList
  } else {
    // the local name usually comes with the scan response.
    bleFlags |= ble.FlagScanTypeActive
  }

  bleHandle, err := ble.InitWithConnParams(cfg.BluetoothDeviceId, cfg.BluetoothConnParams, bleFlags)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  if bleFlags.Has(ble.FlagEnableDeviceAllowList) {
    if err := bleHandle.SetAllowListedAddresses([]net.HardwareAddr{opts.Addr}); err != nil {
      log.Error().Err(err).Msg("Failed to set device allow list")
    }
  }

  return bleHandle
}
