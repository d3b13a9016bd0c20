// Package grip turns the squegg's continuous strength signal into discrete grip counts.
package grip

import (
	"fmt"
	"sync/atomic"

	"github.com/robertof/go-squegg-meter/device"
)

// DefaultThreshold is the strength a squeeze must exceed to count as a grip. Derived from physical
// tests; may need adjusting if the device's sensors change.
const DefaultThreshold = 5.0

// Evaluation selects which strength is compared against the threshold when a squeeze ends.
type Evaluation int

const (
	// Compare the strength carried by the sample reporting the release. A squeeze whose strength
	// dropped below the threshold before the release notification is not counted.
	EvaluateRelease Evaluation = iota
	// Compare the highest strength seen from the start of the squeeze up to and including the
	// release.
	EvaluatePeak
)

func (e Evaluation) String() string {
	switch e {
	case EvaluateRelease:
		return "release"
	case EvaluatePeak:
		return "peak"
	default:
		return fmt.Sprintf("Evaluation(%d)", int(e))
	}
}

// *flag.Value
func (e *Evaluation) Set(v string) error {
	switch v {
	case "", "release":
		*e = EvaluateRelease
	case "peak":
		*e = EvaluatePeak
	default:
		return fmt.Errorf("unknown grip evaluation %q (must be one of release, peak)", v)
	}

	return nil
}

// Filter counts squeeze-release cycles. It only reacts when IsSqueezing changes between consecutive
// samples, so a sustained squeeze with a fluctuating strength is never counted twice.
type Filter struct {
	threshold  float64
	evaluation Evaluation

	squeezing bool
	peak      float64
	count     atomic.Uint64
}

func New(threshold float64) *Filter {
	return NewWithEvaluation(threshold, EvaluateRelease)
}

func NewWithEvaluation(threshold float64, evaluation Evaluation) *Filter {
	return &Filter{
		threshold:  threshold,
		evaluation: evaluation,
	}
}

func (f *Filter) Threshold() float64 {
	return f.threshold
}

// Observe feeds the next sample and reports whether it completed a grip. Not safe for concurrent
// use; samples must be observed in delivery order.
func (f *Filter) Observe(s device.Sample) bool {
	if f.squeezing && s.Strength > f.peak {
		f.peak = s.Strength
	}

	if s.IsSqueezing == f.squeezing {
		return false
	}

	f.squeezing = s.IsSqueezing

	if s.IsSqueezing {
		f.peak = s.Strength
		return false
	}

	strength := s.Strength
	if f.evaluation == EvaluatePeak {
		strength = f.peak
	}

	f.peak = 0

	if strength <= f.threshold {
		return false
	}

	f.count.Add(1)

	return true
}

// Count may be called concurrently with Observe.
func (f *Filter) Count() uint64 {
	return f.count.Load()
}
