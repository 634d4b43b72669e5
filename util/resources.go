// util/resources.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	resourcesFS   fs.StatFS
	resourcesOnce sync.Once
	resourcesErr  error
)

var ErrNoResourcesDir = errors.New("unable to find resources directory")

// SetResourcesFS overrides the file system that resources are loaded from;
// it's mostly useful for tests and for callers that embed their resources.
func SetResourcesFS(fsys fs.StatFS) {
	resourcesOnce.Do(func() {})
	resourcesFS, resourcesErr = fsys, nil
}

func getResourcesFS() (fs.StatFS, error) {
	resourcesOnce.Do(func() {
		resourcesFS, resourcesErr = localResourcesFS()
	})
	return resourcesFS, resourcesErr
}

// Unfortunately, unlike io.ReadCloser, the zstd Decoder's Close() method
// doesn't return an error, so we need to make our own custom ReadCloser
// interface.
type ResourceReadCloser interface {
	io.Reader
	Close()
}

type bytesReadCloser struct {
	*bytes.Reader
}

func (bytesReadCloser) Close() {}

// LoadResource provides a ResourceReadCloser to access the specified file from
// the resources directory; if it's zstd compressed, the Reader will
// handle decompression transparently.
func LoadResource(path string) (ResourceReadCloser, error) {
	fsys, err := getResourcesFS()
	if err != nil {
		return nil, err
	}
	f, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return NewResourceReader(path, f)
}

// NewResourceReader wraps already-loaded file contents, decompressing them
// if the path has a .zst extension.
func NewResourceReader(path string, b []byte) (ResourceReadCloser, error) {
	br := bytesReadCloser{bytes.NewReader(b)}

	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return zr, nil
	}

	return br, nil
}

func LoadResourceBytes(path string) ([]byte, error) {
	r, err := LoadResource(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ResourceExists returns true if the specified resource file exists.
func ResourceExists(path string) bool {
	fsys, err := getResourcesFS()
	if err != nil {
		return false
	}
	_, err = fsys.Stat(path)
	return err == nil
}

// findResourcesBasePath locates the resources directory by checking
// CWD and up to two parent directories.
func findResourcesBasePath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Try CWD as well as the two directories above it
	for range 3 {
		candidate := filepath.Join(dir, "resources")
		if _, err := os.Stat(filepath.Join(candidate, "fonts")); err == nil {
			return candidate, nil
		}
		dir = filepath.Join(dir, "..")
	}

	return "", ErrNoResourcesDir
}

func localResourcesFS() (fs.StatFS, error) {
	basePath, err := findResourcesBasePath()
	if err != nil {
		return nil, err
	}
	fsys, ok := os.DirFS(basePath).(fs.StatFS)
	if !ok {
		panic("FS from DirFS is not a StatFS?")
	}
	return fsys, nil
}
