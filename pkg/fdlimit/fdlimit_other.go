//go:build !unix

package fdlimit

// Current reports the recommended value on platforms without rlimits.
func Current() (uint64, error) {
	return Recommended, nil
}

// Raise is a no-op on platforms without rlimits.
func Raise() (uint64, error) {
	return Recommended, nil
}
