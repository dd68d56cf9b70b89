// util/cache.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// WriteCompressedMsgpack encodes obj with msgpack and zstd-compresses it
// to w.
func WriteCompressedMsgpack(w io.Writer, obj any) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(obj); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadCompressedMsgpack is the inverse of WriteCompressedMsgpack.
func ReadCompressedMsgpack(r io.Reader, obj any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	return msgpack.NewDecoder(zr).Decode(obj)
}

// Cache stores compressed msgpack-encoded objects under a directory,
// keyed by relative path.
type Cache struct {
	Dir string
}

// UserCache returns the cache in the user's cache directory.
func UserCache() (*Cache, error) {
	cd, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return &Cache{Dir: filepath.Join(cd, "RoutePlan")}, nil
}

// Store writes obj to path. The object is written to a temporary file
// that replaces any previous one only once it's complete.
func (c *Cache) Store(path string, obj any) error {
	path = filepath.Join(c.Dir, path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if err := WriteCompressedMsgpack(f, obj); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

// Retrieve decodes the object at path into obj and returns the time it
// was stored.
func (c *Cache) Retrieve(path string, obj any) (time.Time, error) {
	f, err := os.Open(filepath.Join(c.Dir, path))
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), ReadCompressedMsgpack(f, obj)
}

// Cull removes the least recently stored objects until the cache holds
// at most maxBytes.
func (c *Cache) Cull(maxBytes int64) error {
	type entry struct {
		path    string
		size    int64
		modTime time.Time
	}
	var entries []entry
	var total int64

	err := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == c.Dir {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			entries = append(entries, entry{path: path, size: fi.Size(), modTime: fi.ModTime()})
			total += fi.Size()
		}
		return nil
	})
	if err != nil {
		return err
	}

	slices.SortFunc(entries, func(a, b entry) int { return a.modTime.Compare(b.modTime) })
	for _, e := range entries {
		if total <= maxBytes {
			break
		}
		if os.Remove(e.path) == nil {
			total -= e.size
		}
	}
	return nil
}
