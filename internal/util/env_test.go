package util

import (
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  time.Duration
	}{
		{"unset_uses_default", "", false, 2 * time.Second},
		{"go_duration", "1500ms", true, 1500 * time.Millisecond},
		{"bare_number_is_ms", "250", true, 250 * time.Millisecond},
		{"garbage_uses_default", "soon", true, 2 * time.Second},
		{"empty_uses_default", "", true, 2 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set {
				t.Setenv("RELMINER_TEST_DURATION", tc.value)
			}
			got := GetEnvDuration("RELMINER_TEST_DURATION", 2*time.Second)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"true", "true", true},
		{"false", "false", false},
		{"invalid_uses_default", "yes", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RELMINER_TEST_BOOL", tc.value)
			if got := GetEnvBool("RELMINER_TEST_BOOL", true); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetEnvString_BlankUsesDefault(t *testing.T) {
	t.Setenv("RELMINER_TEST_STRING", "   ")
	if got := GetEnvString("RELMINER_TEST_STRING", "fallback"); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}
