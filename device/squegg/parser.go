package squegg

import (
  "math"
  "strconv"
  "strings"

  "github.com/pkg/errors"
  "github.com/robertof/go-squegg-meter/device"
)

const (
  fieldStrength = iota
  fieldSqueezing
  fieldBattery

  numFields
)

// The squegg notifies its state as ASCII text: `<strength>,<squeezing>,<battery>`, e.g. `12.45,1,87`.
// Strength is in kilograms, squeezing is 0 or 1 and battery is a percentage. The firmware pads some
// payloads with NUL bytes.
func parse(data []byte) (s device.Sample, err error) {
  if len(data) == 0 {
    return s, errors.Wrap(device.ErrInvalidData, "squegg: empty payload")
  }

  text := strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
  fields := strings.Split(text, ",")

  if len(fields) != numFields {
    return s, errors.Wrapf(device.ErrInvalidData,
      "squegg: unexpected number of fields (%d) in %q, want %d", len(fields), text, numFields)
  }

  strength, err := strconv.ParseFloat(strings.TrimSpace(fields[fieldStrength]), 64)

  if err != nil || math.IsNaN(strength) || math.IsInf(strength, 0) {
    return s, errors.Wrapf(device.ErrInvalidData, "squegg: bad strength %q", fields[fieldStrength])
  }

  squeezing, err := strconv.ParseBool(strings.TrimSpace(fields[fieldSqueezing]))

  if err != nil {
    return s, errors.Wrapf(device.ErrInvalidData, "squegg: bad squeezing flag %q", fields[fieldSqueezing])
  }

  battery, err := strconv.Atoi(strings.TrimSpace(fields[fieldBattery]))

  if err != nil || battery < 0 || battery > 100 {
    return s, errors.Wrapf(device.ErrInvalidData, "squegg: bad battery charge %q", fields[fieldBattery])
  }

  // the load cell drifts slightly below zero at rest.
  if strength < 0 {
    strength = 0
  }

  s.Strength = strength
  s.IsSqueezing = squeezing
  s.BatteryCharge = battery

  return s, nil
}
