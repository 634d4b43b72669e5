// util/cache.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"compress/flate"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// The object cache holds one flate-compressed msgpack value per file,
// named by a slash-separated key.

// CacheDir can be changed to redirect the object cache (e.g. in tests); if
// empty, a Lumen directory under os.UserCacheDir() is used.
var CacheDir string

var ErrInvalidCacheKey = errors.New("invalid cache key")

func cacheRoot() (string, error) {
	if CacheDir != "" {
		return CacheDir, nil
	}
	cd, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cd, "Lumen"), nil
}

func cachePath(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%q: %w", key, ErrInvalidCacheKey)
	}
	root, err := cacheRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(key)), nil
}

// CacheStoreObject encodes obj under key. The file is written under a
// temporary name and then renamed, so readers never see a partial object.
func CacheStoreObject(key string, obj any) error {
	path, err := cachePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	err = func() error {
		fw, err := flate.NewWriter(f, flate.BestSpeed)
		if err != nil {
			return err
		}
		if err := msgpack.NewEncoder(fw).Encode(obj); err != nil {
			return err
		}
		return fw.Close()
	}()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// CacheRetrieveObject decodes the object stored under key into obj and
// returns the time it was stored. Missing objects give an error that
// matches os.ErrNotExist.
func CacheRetrieveObject(key string, obj any) (time.Time, error) {
	path, err := cachePath(key)
	if err != nil {
		return time.Time{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return time.Time{}, err
	}

	fr := flate.NewReader(f)
	defer fr.Close()
	if err := msgpack.NewDecoder(fr).Decode(obj); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return fi.ModTime(), nil
}

// CacheCullObjects removes the oldest cached objects until the cache
// uses no more than maxBytes.
func CacheCullObjects(maxBytes int64) error {
	root, err := cacheRoot()
	if err != nil {
		return err
	}

	type entry struct {
		path string
		size int64
		mod  time.Time
	}
	var entries []entry
	var total int64

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // removed while walking
		}
		entries = append(entries, entry{path: path, size: info.Size(), mod: info.ModTime()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return err
	}

	slices.SortFunc(entries, func(a, b entry) int { return a.mod.Compare(b.mod) })
	for _, e := range entries {
		if total <= maxBytes {
			break
		}
		if err := os.Remove(e.path); err == nil {
			total -= e.size
		}
	}
	return nil
}
