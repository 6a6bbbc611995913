package memory

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidTTL is returned when an expiry amount is not positive or does not
// fit in an absolute millisecond deadline.
var ErrInvalidTTL = errors.New("memory: invalid ttl")

// TTLUnit is the granularity of an expiry amount.
type TTLUnit uint8

const (
	// Seconds is the unit of the EX option.
	Seconds TTLUnit = iota + 1
	// Milliseconds is the unit of the PX option.
	Milliseconds
)

// String returns the option keyword for the unit.
func (u TTLUnit) String() string {
	switch u {
	case Seconds:
		return "EX"
	case Milliseconds:
		return "PX"
	default:
		return "UNKNOWN"
	}
}

// ToMillis converts amount to milliseconds.
func (u TTLUnit) ToMillis(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidTTL
	}
	switch u {
	case Seconds:
		if amount > math.MaxInt64/1000 {
			return 0, ErrInvalidTTL
		}
		return amount * 1000, nil
	case Milliseconds:
		return amount, nil
	default:
		return 0, ErrInvalidTTL
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// deadline returns now+ttl in unix milliseconds.
func deadline(now time.Time, ttlMillis int64) (int64, error) {
	base := now.UnixMilli()
	if ttlMillis > math.MaxInt64-base {
		return 0, ErrInvalidTTL
	}
	return base + ttlMillis, nil
}
