package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/robertof/go-squegg-meter/controller"
	"github.com/robertof/go-squegg-meter/grip"
	"github.com/robertof/go-squegg-meter/metrics"
	"github.com/robertof/go-squegg-meter/mqtt"
	"github.com/robertof/go-squegg-meter/ui"
)

func run(parentCtx context.Context, cfg config, bleHandle *ble.Handle) error {
  ctx, cancel := context.WithCancel(parentCtx)
  defer cancel()

  grips := grip.NewWithEvaluation(cfg.GripThreshold, cfg.GripEvaluation)
  ctrl := controller.New(controller.NewHCICentral(bleHandle), cfg.Device, grips, cfg.controllerConfig())

  defer func() {
    if err := ctrl.Close(); err != nil {
      log.Warn().Err(err).Msg("Failed to release the device connection")
    }
  }()

  g, ctx := errgroup.WithContext(ctx)

  if cfg.BindAddress != "" {
    registry := prometheus.NewRegistry()

    ble.RegisterMetrics(registry)
    metrics.RegisterCollector(cfg.Device.Name(), ctrl.Snapshot, registry)

    serveMetrics(ctx, g, cfg.BindAddress, registry)
  }

  if cfg.MQTTBroker != "" {
    pub, err := mqtt.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTClientID)
    if err != nil {
      return fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.MQTTBroker, err)
    }

    log.Info().Str("Broker", cfg.MQTTBroker).Msg("Publishing grip and state events over MQTT")

    fwd := mqtt.NewForwarder(pub, cfg.Device.Name(), mqtt.DefaultQueueSize)
    fwd.Attach(ctrl)

    g.Go(func() error {
      return fwd.Run(ctx)
    })
  }

  g.Go(func() error {
    // the readout owns the process lifetime: stop everything else once it returns.
    defer cancel()

    if cfg.Headless {
      return runHeadless(ctx, ctrl)
    }

    return runUI(ctx, cfg, ctrl)
  })

  return g.Wait()
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, reg *prometheus.Registry) {
  mux := http.NewServeMux()
  mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

  server := &http.Server{
    Addr: addr,
    Handler: mux,
    ReadHeaderTimeout: 5 * time.Second,
  }

  log.Info().
      Str("ListenAddress", addr).
      Msg("Starting Prometheus server")

  g.Go(func() error {
    if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
      return fmt.Errorf("unable to bind on requested address: %w", err)
    }

    return nil
  })

  g.Go(func() error {
    <-ctx.Done()

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5 * time.Second)
    defer cancel()

    return server.Shutdown(shutdownCtx)
  })
}

func runUI(ctx context.Context, cfg config, ctrl *controller.Controller) error {
  model := ui.New(ctx, ctrl, ui.Options{
    LowerStrengthBoundary: cfg.LowerStrengthBoundary,
    DeviceName: cfg.Device.Name(),
  })

  p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
  ui.Attach(p, ctrl)

  if _, err := p.Run(); err != nil {
    if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
      return nil
    }

    return fmt.Errorf("terminal UI failed: %w", err)
  }

  return nil
}

// Connects as soon as the controller is (back) in its initial state and logs what comes in.
func runHeadless(ctx context.Context, ctrl *controller.Controller) error {
  ready := make(chan struct{}, 1)

  ctrl.OnStateChange(func(c controller.StateChange) {
    if c.To != controller.StateInitial {
      return
    }

    select {
    case ready <- struct{}{}:
    default:
    }
  })

  ctrl.OnSample(func(u controller.Update) {
    if u.Counted {
      log.Info().
        Float64("Strength", u.Sample.Strength).
        Uint64("Grips", u.Grips).
        Int("Battery", u.Sample.BatteryCharge).
        Msg("Grip")
    }
  })

  ready <- struct{}{}

  for {
    select {
    case <-ctx.Done():
      return nil

    case <-ready:
      err := ctrl.Connect(ctx)

      if errors.Is(err, controller.ErrClosed) {
        return nil
      }

      if err != nil {
        log.Warn().Err(err).Msg("Connect request rejected")
      }
    }
  }
}
