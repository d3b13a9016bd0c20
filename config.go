package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/robertof/go-squegg-meter/controller"
	"github.com/robertof/go-squegg-meter/device"
	"github.com/robertof/go-squegg-meter/device/squegg"
	"github.com/robertof/go-squegg-meter/display"
	"github.com/robertof/go-squegg-meter/grip"
)

type config struct {
  Debug, Trace bool
  LogFile string
  BindAddress string
  DiscoverDevices bool
  Headless bool
  BluetoothDeviceId int
  BluetoothConnParams ble.ConnParams
  LowerStrengthBoundary float64
  GripThreshold float64
  GripEvaluation grip.Evaluation
  DiscoveryTimeout, ConnectTimeout, ErrorCooldown time.Duration
  MQTTBroker, MQTTClientID string
  Device device.Device
}

type boundDevice struct {
  device.Factory
  name string
  dev *device.Device
  set bool
}

var deviceFactories = map[string]device.Factory {
  "squegg": &squegg.Factory{},
}

func (d *boundDevice) String() string {
  return ""
}

func (d *boundDevice) Set(v string) error {
  if d.set {
    return errors.New("only one device can be specified")
  }

  ds := device.NewDeviceSpec(v)

  dev, err := d.FromSpec(ds)
  if err != nil {
    return fmt.Errorf("failed to create %s device: %w", d.name, err)
  }

  *d.dev = dev
  d.set = true

  return nil
}

func ParseArgs() config {
  cfg, err := parseArgs(flag.CommandLine, os.Args[1:])

  if err != nil {
    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
    flag.Usage()
    os.Exit(2)
  }

  return cfg
}

func parseArgs(fs *flag.FlagSet, args []string) (config, error) {
  var cfg config

  cfg.BluetoothConnParams = ble.ConnParamsLowLatency
  cfg.GripEvaluation = grip.EvaluateRelease

  fs.StringVar(&cfg.BindAddress, "bind", "localhost:9102",
    "Where the Prometheus endpoint will bind to. Empty to disable")
  fs.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
  fs.Var(&cfg.BluetoothConnParams, "bluetooth-connection-params",
    "Bluetooth connection parameters (one of 'low-latency' or 'power-saving')")
  fs.BoolVar(&cfg.DiscoverDevices, "discover", false, "Discover available BLE devices and quit")
  fs.BoolVar(&cfg.Headless, "headless", false,
    "Don't start the terminal UI: connect immediately, reconnect after errors and log samples")
  fs.StringVar(&cfg.LogFile, "log-file", "squegg-meter.log",
    "Where logs are written while the terminal UI is running")
  fs.Float64Var(&cfg.LowerStrengthBoundary, "lower-strength-boundary",
    display.DefaultLowerStrengthBoundary, "Strengths at or below this value are displayed as 0")
  fs.Float64Var(&cfg.GripThreshold, "grip-threshold", grip.DefaultThreshold,
    "Minimum strength for a released squeeze to count as a grip")
  fs.Var(&cfg.GripEvaluation, "grip-evaluation",
    "Strength compared against the threshold: 'release' (sample ending the squeeze) or 'peak'")
  fs.DurationVar(&cfg.DiscoveryTimeout, "discovery-timeout", controller.DefaultDiscoveryTimeout,
    "How long to scan for the device on every connection attempt")
  fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", controller.DefaultConnectTimeout,
    "Timeout for establishing the connection to the device")
  fs.DurationVar(&cfg.ErrorCooldown, "error-cooldown", controller.DefaultErrorCooldown,
    "Time spent in the error state before a new connection can be attempted")
  fs.StringVar(&cfg.MQTTBroker, "mqtt-broker", "",
    "MQTT broker (e.g. tcp://localhost:1883) receiving grip and state events. Empty to disable")
  fs.StringVar(&cfg.MQTTClientID, "mqtt-client-id", "squegg-meter", "MQTT client ID")
  fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
  fs.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

  for deviceName, deviceFactory := range deviceFactories {
    bound := &boundDevice{
      name:    deviceName,
      Factory: deviceFactory,
      dev:     &cfg.Device,
    }

    help := "Device spec for this device in the form of `key=value,key=value`."

    if docs, ok := deviceFactory.(device.FactoryDocs); ok {
      help += "\n" + docs.Help()
    }

    fs.Var(bound, deviceName, help)
  }

  if err := fs.Parse(args); err != nil {
    return cfg, err
  }

  if cfg.Device == nil {
    cfg.Device = squegg.New()
  }

  switch {
  case cfg.GripThreshold < 0:
    return cfg, fmt.Errorf("-grip-threshold must not be negative, got %v", cfg.GripThreshold)
  case cfg.LowerStrengthBoundary < 0:
    return cfg, fmt.Errorf("-lower-strength-boundary must not be negative, got %v",
      cfg.LowerStrengthBoundary)
  case cfg.DiscoveryTimeout <= 0 || cfg.ConnectTimeout <= 0:
    return cfg, errors.New("-discovery-timeout and -connect-timeout must be positive")
  case cfg.ErrorCooldown <= 0:
    return cfg, fmt.Errorf("-error-cooldown must be positive, got %v", cfg.ErrorCooldown)
  }

  return cfg, nil
}

func (cfg config) controllerConfig() controller.Config {
  c := controller.DefaultConfig()

  c.DiscoveryTimeout = cfg.DiscoveryTimeout
  c.ConnectTimeout = cfg.ConnectTimeout
  c.ErrorCooldown = cfg.ErrorCooldown

  return c
}

// Logs go to a file while the terminal UI owns the screen.
func (cfg config) logOutput() (io.Writer, func() error, error) {
  if cfg.Headless || cfg.DiscoverDevices {
    return os.Stderr, func() error { return nil }, nil
  }

  if cfg.LogFile == "" {
    return io.Discard, func() error { return nil }, nil
  }

  f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
  if err != nil {
    return nil, nil, fmt.Errorf("failed to open log file: %w", err)
  }

  return f, f.Close, nil
}
