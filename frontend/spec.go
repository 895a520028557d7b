package frontend

import "fmt"

// Spec holds immutable configuration values for the front end.
type Spec struct {
	// StatusPeriod is the number of producer cycles between two publications
	// of the aggregate lane counters.
	StatusPeriod int
}

// Validate checks the spec.
func (s Spec) Validate() error {
	if s.StatusPeriod <= 0 {
		return fmt.Errorf("status period must be > 0")
	}

	return nil
}

// Defaults returns a Spec with sane defaults.
func Defaults() Spec {
	return Spec{StatusPeriod: 16}
}
