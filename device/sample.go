package device

import "fmt"

// Sample is one decoded reading, delivered once per notification.
type Sample struct {
  Strength      float64
  IsSqueezing   bool
  BatteryCharge int
}

func (s Sample) String() string {
  return fmt.Sprintf("Sample[Strength=%.2f,Squeezing=%v,Battery=%d%%]",
    s.Strength, s.IsSqueezing, s.BatteryCharge)
}
