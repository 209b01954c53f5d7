// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalidDocument is the sentinel error wrapped by DocumentError.
var ErrInvalidDocument = errors.New("invalid document")

type (
	// Issue is one problem found in a document.
	Issue struct {
		// Path is the JSON-style path to the offending value (e.g., "build.plugins[0].version").
		Path    string
		Message string
	}

	// DocumentError lists every problem CUE reported for a document.
	DocumentError struct {
		File   string
		Issues []Issue
	}
)

// Error implements the error interface.
func (e *DocumentError) Error() string {
	lines := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Path != "" {
			lines = append(lines, is.Path+": "+is.Message)
		} else {
			lines = append(lines, is.Message)
		}
	}
	switch len(lines) {
	case 0:
		return e.File + ": invalid document"
	case 1:
		return e.File + ": " + lines[0]
	default:
		return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
	}
}

// Unwrap returns ErrInvalidDocument for errors.Is() compatibility.
func (e *DocumentError) Unwrap() error { return ErrInvalidDocument }

// FormatError converts a CUE error into a *DocumentError for filePath.
// Errors that did not come from CUE are wrapped with the file path only.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var ce cueerrors.Error
	if !errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	cueErrs := cueerrors.Errors(err)

	docErr := &DocumentError{File: filePath}
	for _, e := range cueErrs {
		p := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE repeats the path at the start of some messages.
		if p != "" && strings.HasPrefix(msg, p) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, p), ":"))
		}
		docErr.Issues = append(docErr.Issues, Issue{Path: p, Message: msg})
	}
	return docErr
}

// formatPath turns CUE's ["build", "plugins", "0", "version"] into
// "build.plugins[0].version".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error when data is larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
