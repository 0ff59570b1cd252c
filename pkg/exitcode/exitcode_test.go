/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	codes := map[int]int{
		Success:         0,
		GeneralError:    1,
		ConfigError:     2,
		ValidationError: 3,
		FileSystemError: 4,
		PermissionError: 6,
	}
	for got, want := range codes {
		if got != want {
			t.Errorf("exit code = %d, expected %d", got, want)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{ConfigError, "Configuration error"},
		{FileSystemError, "File system error"},
		{999, "Unknown error"},
	}
	for _, test := range tests {
		if got := String(test.code); got != test.expected {
			t.Errorf("String(%d) = %q, expected %q", test.code, got, test.expected)
		}
	}
}

func TestFromError(t *testing.T) {
	base := errors.New("target root missing")

	if got := FromError(nil); got != Success {
		t.Errorf("FromError(nil) = %d", got)
	}
	if got := FromError(base); got != GeneralError {
		t.Errorf("FromError(plain) = %d", got)
	}

	wrapped := fmt.Errorf("run: %w", Wrap(FileSystemError, base))
	if got := FromError(wrapped); got != FileSystemError {
		t.Errorf("FromError(wrapped) = %d, expected %d", got, FileSystemError)
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should unwrap to the original")
	}
	if Wrap(ConfigError, nil) != nil {
		t.Error("Wrap(nil) should stay nil")
	}
	if got := Errorf(ConfigError, "bad %s", "order").Error(); got != "bad order" {
		t.Errorf("Errorf() message = %q", got)
	}
}
