// Package framecache stores the latest frame and preview blob per display.
//
// The cache is deliberately last-write-wins: Put overwrites unconditionally
// with no sequencing token, so a stale write that arrives late replaces a
// newer one. That weak guarantee is acceptable for live screen sharing where
// the next frame is always moments away. Entries are never deleted; they
// outlive the capture agent that produced them.
package framecache

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"

	"github.com/remote-screen-share/backend/internal/model"
)

// Kind distinguishes the two blob slots kept per display.
type Kind int

const (
	KindFrame Kind = iota
	KindPreview
)

type key struct {
	display int
	kind    Kind
}

// Cache holds the latest opaque blob per (display, kind). Blobs are the
// text-safe encoded strings carried on the wire; the cache never inspects
// them.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]string
}

func New() *Cache {
	return &Cache{
		entries: make(map[key]string),
	}
}

// Put stores blob for the given display and kind, replacing any previous
// entry.
func (c *Cache) Put(display int, kind Kind, blob string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{display: display, kind: kind}] = blob
}

// Get returns the stored blob or model.ErrFrameNotFound.
func (c *Cache) Get(display int, kind Kind) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blob, ok := c.entries[key{display: display, kind: kind}]
	if !ok {
		return "", model.ErrFrameNotFound
	}
	return blob, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Decode turns a cached blob back into raw image bytes for the HTTP read
// path. Capture agents encode frames as base64(zlib(jpeg)); this is the
// inverse. The cache itself never calls this, producers own format
// correctness.
func Decode(blob string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame blob: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to open frame stream: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate frame: %w", err)
	}
	return raw, nil
}
