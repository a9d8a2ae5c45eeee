package identity

import "time"

// systemClock is the default clock handlers use when none is injected
func systemClock() time.Time {
	return time.Now().UTC()
}

// IsWithinThresholdPeriod checks if the given time is within the threshold
// of the supplied instant
func IsWithinThresholdPeriod(now, t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := now.Add(-duration)
	if t.After(threshold) {
		return true, nil
	}

	return false, nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(now, t time.Time, pattern string) (bool, error) {
	valid, err := IsWithinThresholdPeriod(now, t, pattern)
	if err != nil {
		return false, err
	}

	return !valid, nil
}
