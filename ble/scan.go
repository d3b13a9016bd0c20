package ble

import (
  "context"
  "errors"
  "fmt"
  "net"
  "strings"
  "sync"

  "github.com/go-ble/ble"
  "github.com/robertof/go-squegg-meter/utils"
  "github.com/rs/zerolog/log"
)

var ErrDeviceNotFound = errors.New("no matching device found")

// DeviceOptions selects a single peripheral out of the advertisements received during a scan.
// Every non-empty field must match.
type DeviceOptions struct {
  Name       string
  NamePrefix string
  Addr       net.HardwareAddr
  // At least one of these must be advertised.
  Services []UUID
}

func (o DeviceOptions) Matches(a Advertisement) bool {
  if o.Name != "" && a.LocalName() != o.Name {
    return false
  }

  if o.NamePrefix != "" && !strings.HasPrefix(a.LocalName(), o.NamePrefix) {
    return false
  }

  if o.Addr != nil && !strings.EqualFold(a.Addr().String(), o.Addr.String()) {
    return false
  }

  if len(o.Services) > 0 {
    found := false

    for _, uuid := range o.Services {
      if ble.Contains(a.Services(), uuid) {
        found = true
        break
      }
    }

    if !found {
      return false
    }
  }

  return true
}

func (o DeviceOptions) String() string {
  var fields []string

  if o.Name != "" {
    fields = append(fields, fmt.Sprintf("Name=%q", o.Name))
  }

  if o.NamePrefix != "" {
    fields = append(fields, fmt.Sprintf("NamePrefix=%q", o.NamePrefix))
  }

  if o.Addr != nil {
    fields = append(fields, "Addr="+o.Addr.String())
  }

  if len(o.Services) > 0 {
    fields = append(fields, fmt.Sprintf("Services=%v", o.Services))
  }

  return "DeviceOptions[" + strings.Join(fields, ",") + "]"
}

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
  return ble.WithSigHandler(ctx, cancel)
}

// Perform an active or passive scan and return every advertisement found.
func (h *Handle) ScanAll(ctx context.Context, onDevice func(Advertisement)) error {
  err := h.dev.Scan(ctx, true, onDevice)

  if err != nil {
    return fmt.Errorf("failed to initiate scan: %w", err)
  }

  return nil
}

// Scan until an advertisement matching the options shows up and return it. Fails with
// ErrDeviceNotFound if the context expires first.
func (h *Handle) FindDevice(parentCtx context.Context, opts DeviceOptions) (Advertisement, error) {
  ctx, cancel := context.WithCancel(parentCtx)
  defer cancel()

  var once sync.Once
  matches := make(chan Advertisement, 1)

  log.Debug().Stringer("Options", opts).Msg("ble: scanning for device")

  err := h.dev.Scan(ctx, false, func(a Advertisement) {
    // the BLE lib could send an advertisement even after `Scan()` returns.
    if ctx.Err() != nil || !opts.Matches(a) {
      return
    }

    once.Do(func() {
      scanMatchesCounter.Inc()

      log.Trace().
        Str("Addr", a.Addr().String()).
        Str("Name", a.LocalName()).
        Int("RSSI", a.RSSI()).
        Msg("ble: found matching device")

      matches <- a
      cancel()
    })
  })

  select {
  case a := <-matches:
    return a, nil
  default:
  }

  if err == nil || utils.IsContextDone(err) {
    return nil, fmt.Errorf("%w (%v)", ErrDeviceNotFound, opts)
  }

  return nil, fmt.Errorf("failed to initiate scan: %w", err)
}
