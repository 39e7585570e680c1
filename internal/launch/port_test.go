package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetPort(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		accepted bool
		stored   string
	}{
		{"empty", "", true, ""},
		{"zero", "0", true, "0"},
		{"typical", "3000", true, "3000"},
		{"max", "65535", true, "65535"},
		{"leading zeros", "0080", true, "0080"},
		{"just over", "65536", true, "65535"},
		{"huge", "99999999999999999999999", true, "65535"},
		{"letters", "80a", false, "1234"},
		{"negative", "-1", false, "1234"},
		{"space", " 80", false, "1234"},
		{"plus", "+80", false, "1234"},
		{"decimal", "80.5", false, "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithPort("1234"))
			assert.Equal(t, tt.accepted, c.SetPort(tt.raw))
			assert.Equal(t, tt.stored, c.Port())
		})
	}
}

func TestEffectivePort(t *testing.T) {
	tests := []struct {
		stored    string
		port      string
		defaulted bool
	}{
		{"", "8080", true},
		{"0", "8080", true},
		{"65536", "8080", true},
		{"abc", "8080", true},
		{"1", "1", false},
		{"0080", "80", false},
		{"65535", "65535", false},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			port, defaulted := effectivePort(tt.stored)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.defaulted, defaulted)
		})
	}
}

func TestWithPortIgnoresInvalidInput(t *testing.T) {
	assert.Equal(t, DefaultPort, New(WithPort("http")).Port())
	assert.Equal(t, "65535", New(WithPort("70000")).Port())
}
