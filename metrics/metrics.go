package metrics

import (
  "github.com/prometheus/client_golang/prometheus"
  "github.com/robertof/go-squegg-meter/controller"
)

var (
  descStrength = prometheus.NewDesc(
    "squegg_strength_kilograms",
    "Latest raw strength reported by the device.",
    []string{"name"},
    nil,
  )

  descSqueezing = prometheus.NewDesc(
    "squegg_squeezing",
    "Whether the device reported being squeezed in its latest sample.",
    []string{"name"},
    nil,
  )

  descBattery = prometheus.NewDesc(
    "squegg_battery_ratio",
    "Battery charge reported by the device.",
    []string{"name"},
    nil,
  )

  descGrips = prometheus.NewDesc(
    "squegg_grips_total",
    "Grips counted since the process started.",
    []string{"name"},
    nil,
  )

  descSamples = prometheus.NewDesc(
    "squegg_samples_total",
    "Notifications successfully decoded.",
    []string{"name"},
    nil,
  )

  descDecodeErrors = prometheus.NewDesc(
    "squegg_decode_errors_total",
    "Notifications dropped because they could not be decoded.",
    []string{"name"},
    nil,
  )

  descState = prometheus.NewDesc(
    "squegg_connection_state",
    "Current connection state. 1 for the active state, 0 otherwise.",
    []string{"name", "state"},
    nil,
  )
)

type CollectFunc func() controller.Snapshot

type collector struct {
  name string
  CollectFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  snap := c.CollectFunc()

  for _, state := range controller.AllStates {
    value := 0.0
    if state == snap.State {
      value = 1
    }

    ch <- prometheus.MustNewConstMetric(descState, prometheus.GaugeValue, value, c.name, state.String())
  }

  ch <- prometheus.MustNewConstMetric(descGrips, prometheus.CounterValue, float64(snap.Grips), c.name)
  ch <- prometheus.MustNewConstMetric(descSamples, prometheus.CounterValue, float64(snap.Samples), c.name)
  ch <- prometheus.MustNewConstMetric(
    descDecodeErrors, prometheus.CounterValue, float64(snap.DecodeErrors), c.name)

  // no sample yet: don't report made-up readings.
  if !snap.HasSample() {
    return
  }

  squeezing := 0.0
  if snap.Sample.IsSqueezing {
    squeezing = 1
  }

  readings := []prometheus.Metric{
    prometheus.MustNewConstMetric(descStrength, prometheus.GaugeValue, snap.Sample.Strength, c.name),
    prometheus.MustNewConstMetric(descSqueezing, prometheus.GaugeValue, squeezing, c.name),
    prometheus.MustNewConstMetric(
      descBattery, prometheus.GaugeValue, float64(snap.Sample.BatteryCharge) / 100, c.name),
  }

  for _, m := range readings {
    ch <- prometheus.NewMetricWithTimestamp(snap.SampleTime, m)
  }
}

// RegisterCollector exposes the snapshots returned by f under the given device name.
func RegisterCollector(name string, f CollectFunc, reg prometheus.Registerer) {
  reg.MustRegister(&collector{name: name, CollectFunc: f})
}
