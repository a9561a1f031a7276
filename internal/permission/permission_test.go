package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		code string
		want Permissions
	}{
		{"111", Permissions{CanRead: true, CanWrite: true, CanMask: true}},
		{"110", Permissions{CanRead: true, CanWrite: true}},
		{"100", Permissions{CanRead: true}},
		{"101", Permissions{CanRead: true, CanMask: true}},
		{"010", Permissions{CanWrite: true}},
		{"000", Permissions{}},
		// two characters: mask defaults off
		{"11", Permissions{CanRead: true, CanWrite: true}},
		{"10", Permissions{CanRead: true}},
		// absent or malformed codes are fully open
		{"", Permissions{CanRead: true, CanWrite: true}},
		{"1", Permissions{CanRead: true, CanWrite: true}},
		// any non-'1' character clears its flag
		{"1x1", Permissions{CanRead: true, CanMask: true}},
		{"abc", Permissions{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.code), "code %q", tt.code)
	}
}

// Parse never panics, whatever the input looks like.
func TestParse_Total(t *testing.T) {
	for _, code := range []string{"", "0", "1", "00", "1111111", "\x00\xff", "日本語"} {
		_ = Parse(code)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		code         string
		visible      bool
		disabled     bool
	}{
		{"111", true, false},
		{"110", true, false},
		{"100", true, true},
		{"010", false, false},
		{"000", false, true},
		{"", true, false},
	}
	for _, tt := range tests {
		got := Evaluate(tt.code)
		assert.Equal(t, tt.visible, got.Visible, "code %q visible", tt.code)
		assert.Equal(t, tt.disabled, got.Disabled, "code %q disabled", tt.code)
	}
}
