// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "forge.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with file path", func(t *testing.T) {
		t.Parallel()

		original := errors.New("disk on fire")
		err := FormatError(original, "forge.cue")
		if !errors.Is(err, original) {
			t.Errorf("error should wrap the original, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "forge.cue: ") {
			t.Errorf("error should start with the file path, got %q", err.Error())
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"groupId"}, "groupId"},
		{[]string{"build", "plugins"}, "build.plugins"},
		{[]string{"build", "plugins", "0", "version"}, "build.plugins[0].version"},
		{[]string{"modules", "1"}, "modules[1]"},
		{[]string{"0"}, "0"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDocumentError(t *testing.T) {
	t.Parallel()

	single := &DocumentError{File: "forge.cue", Issues: []Issue{{Path: "version", Message: "incomplete value string"}}}
	if got := single.Error(); got != "forge.cue: version: incomplete value string" {
		t.Errorf("Error() = %q", got)
	}

	multi := &DocumentError{File: "forge.cue", Issues: []Issue{
		{Path: "groupId", Message: "conflicting values"},
		{Message: "syntax error"},
	}}
	if got := multi.Error(); !strings.Contains(got, "validation failed") || !strings.Contains(got, "\n  syntax error") {
		t.Errorf("Error() = %q", got)
	}

	if !errors.Is(multi, ErrInvalidDocument) {
		t.Error("DocumentError should wrap ErrInvalidDocument")
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "forge.cue"); err != nil {
		t.Errorf("data at the limit: %v", err)
	}
	err := CheckFileSize(make([]byte, 101), 100, "forge.cue")
	if err == nil {
		t.Fatal("expected error above the limit")
	}
	for _, want := range []string{"forge.cue", "101", "100"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err.Error(), want)
		}
	}
}
