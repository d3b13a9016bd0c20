// Package display animates the strength readout. Nothing here affects grip counting.
package display

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// DefaultLowerStrengthBoundary is the strength at or below which the device is considered at rest.
// The sensor is noisy and may otherwise get stuck on a small non-zero value after a squeeze.
const DefaultLowerStrengthBoundary = 2.0

const (
	DefaultFPS = 60

	// tension 170, friction 26, mass 1: a snappy spring that barely overshoots.
	angularFrequency = 13.04
	dampingRatio     = 0.997

	// below this the spring is considered settled.
	epsilon = 0.001
)

// Floor returns 0 for strengths at or below the boundary.
func Floor(strength, lowerBoundary float64) float64 {
	if strength <= lowerBoundary {
		return 0
	}

	return strength
}

// Smoother springs the displayed value towards the latest floored strength.
type Smoother struct {
	lowerBoundary float64
	spring        harmonica.Spring

	pos, vel float64
	target   float64
}

func New(lowerBoundary float64, fps int) *Smoother {
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &Smoother{
		lowerBoundary: lowerBoundary,
		spring:        harmonica.NewSpring(harmonica.FPS(fps), angularFrequency, dampingRatio),
	}
}

// SetTarget records the latest raw strength.
func (s *Smoother) SetTarget(strength float64) {
	s.target = Floor(strength, s.lowerBoundary)
}

func (s *Smoother) Target() float64 {
	return s.target
}

// Step advances the animation by one frame and returns the new displayed value.
func (s *Smoother) Step() float64 {
	if s.Settled() {
		s.pos, s.vel = s.target, 0
		return s.pos
	}

	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)

	return s.pos
}

func (s *Smoother) Settled() bool {
	return math.Abs(s.pos-s.target) < epsilon && math.Abs(s.vel) < epsilon
}

func (s *Smoother) Value() float64 {
	return s.pos
}

// Rounded is what the readout shows.
func (s *Smoother) Rounded() int {
	v := int(math.Round(s.pos))

	// a slight overshoot below zero would render as "-0".
	if v < 0 {
		return 0
	}

	return v
}
