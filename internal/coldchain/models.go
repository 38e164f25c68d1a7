package coldchain

import (
	"fmt"
	"time"

	"pharmatrace/pkg/domain"
)

// Centidegrees is a fixed-point temperature with two decimal places:
// 2550 means 25.50°C. Signed; cold-chain ranges routinely cross zero.
type Centidegrees int64

func (c Centidegrees) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d°C", sign, v/100, v%100)
}

// Threshold is the acceptable [Min, Max] range for a batch.
type Threshold struct {
	Min Centidegrees `json:"min"`
	Max Centidegrees `json:"max"`
}

// Contains reports whether the value lies inside the acceptable range.
func (t Threshold) Contains(value Centidegrees) bool {
	return value >= t.Min && value <= t.Max
}

// Reading is one sensor observation. The violation flag is derived at insert
// time against the threshold configured then; it is never cleared afterwards.
type Reading struct {
	BatchID     domain.BatchID `json:"batch_id"`
	Temperature Centidegrees   `json:"temperature"`
	Timestamp   time.Time      `json:"timestamp"`
	Location    string         `json:"location"`
	Sensor      domain.Actor   `json:"sensor"`
	Violation   bool           `json:"violation"`
}

// HasViolations reports whether any reading was out of threshold. Violations
// are cumulative: later in-range readings never clear them.
func HasViolations(readings []Reading) bool {
	for _, r := range readings {
		if r.Violation {
			return true
		}
	}
	return false
}
