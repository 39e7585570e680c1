package launch

import (
	"regexp"
	"strconv"
)

var digitsOnly = regexp.MustCompile(`^[0-9]*$`)

// normalizePort applies the input rule for a raw port: digits or empty
// only, with values above MaxPort clamped. ok is false for rejected input.
func normalizePort(raw string) (stored string, ok bool) {
	if !digitsOnly.MatchString(raw) {
		return "", false
	}
	if raw == "" {
		return raw, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n > MaxPort {
		// Only overflow fails once the pattern matched; that is > MaxPort too.
		return strconv.Itoa(MaxPort), true
	}
	return raw, true
}

// effectivePort returns the port used for the server URL and whether the
// stored value had to be replaced with DefaultPort.
func effectivePort(stored string) (port string, defaulted bool) {
	n, err := strconv.Atoi(stored)
	if err != nil || n <= 0 || n > MaxPort || !digitsOnly.MatchString(stored) {
		return DefaultPort, true
	}
	return strconv.Itoa(n), false
}
