package ble

import (
  "context"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/rs/zerolog/log"
)

var (
  successfulConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "squegg_meter_ble_successful_connections_total",
  })
  failedConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "squegg_meter_ble_failed_connections_total",
  })
  disconnectsCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "squegg_meter_ble_disconnections_total",
  })
  scanMatchesCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "squegg_meter_ble_scan_matches_total",
  })
)

// Open a GATT connection to the peripheral.
func (h *Handle) Connect(ctx context.Context, addr Addr) (Client, error) {
  c, err := h.dev.Dial(ctx, addr)

  if err != nil {
    failedConnectionsCounter.Inc()
    return nil, err
  }

  successfulConnectionsCounter.Inc()
  log.Debug().Stringer("Addr", addr).Msg("ble: successfully opened new connection to device")

  // spawn a watchdog logging when the connection breaks. the session is not restarted.
  go func() {
    <-c.Disconnected()

    disconnectsCounter.Inc()
    log.Warn().Stringer("Addr", addr).Msg("ble: connection with device closed")
  }()

  return c, nil
}
