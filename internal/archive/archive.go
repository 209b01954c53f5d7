// SPDX-License-Identifier: MPL-2.0

// Package archive reads entries from artifact files. An artifact file is
// either a zip archive or, for artifacts that are not packaged yet (such as
// modules of the current build), an exploded directory.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// ErrEntryNotFound is returned when an artifact has no entry with the requested name.
var ErrEntryNotFound = errors.New("archive entry not found")

// ReadEntry returns the content of the slash-separated entry name inside the
// artifact file. A missing entry yields an error matching ErrEntryNotFound.
func ReadEntry(fsys afero.Fs, file, name string) (data []byte, err error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")

	info, err := fsys.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", file, err)
	}

	if info.IsDir() {
		data, err = afero.ReadFile(fsys, filepath.Join(file, filepath.FromSlash(name)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s!/%s: %w", file, name, ErrEntryNotFound)
		}
		return data, err
	}

	zr, closer, err := openZip(fsys, file, info.Size())
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, openErr := f.Open()
		if openErr != nil {
			return nil, fmt.Errorf("failed to open %s!/%s: %w", file, name, openErr)
		}
		data, err = io.ReadAll(rc)
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		return data, err
	}
	return nil, fmt.Errorf("%s!/%s: %w", file, name, ErrEntryNotFound)
}

// Entries returns the slash-separated names of every regular file inside
// the artifact, sorted.
func Entries(fsys afero.Fs, file string) (names []string, err error) {
	info, err := fsys.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", file, err)
	}

	if info.IsDir() {
		err = afero.Walk(fsys, file, func(p string, fi fs.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if fi.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(file, p)
			if relErr != nil {
				return relErr
			}
			names = append(names, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list artifact %s: %w", file, err)
		}
		slices.Sort(names)
		return names, nil
	}

	zr, closer, err := openZip(fsys, file, info.Size())
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Write creates a zip archive at file holding the given entries.
func Write(fsys afero.Fs, file string, entries map[string][]byte) (err error) {
	if err = fsys.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", file, err)
	}
	out, err := fsys.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", file, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(out)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w, createErr := zw.Create(name)
		if createErr != nil {
			return fmt.Errorf("failed to add %s to %s: %w", name, file, createErr)
		}
		if _, writeErr := w.Write(entries[name]); writeErr != nil {
			return fmt.Errorf("failed to write %s to %s: %w", name, file, writeErr)
		}
	}
	return zw.Close()
}

func openZip(fsys afero.Fs, file string, size int64) (*zip.Reader, io.Closer, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact %s: %w", file, err)
	}
	zr, err := zip.NewReader(f, size)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("artifact %s is not a zip archive: %w", file, err)
	}
	return zr, f, nil
}
