package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current wall clock time in the configured location.
	Now() time.Time
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl returns a clock in the machine's local time zone, price
// observations are stamped with local time.
func NewStandardImpl() StandardImpl {
	return StandardImpl{location: time.Local}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

// Stepped is a clock that starts at a fixed instant and advances by Step on
// every call to Now.
type Stepped struct {
	Current time.Time
	Step    time.Duration
}

func (s *Stepped) Now() time.Time {
	now := s.Current
	s.Current = s.Current.Add(s.Step)
	return now
}
