package framecache

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/remote-screen-share/backend/internal/model"
)

// encodeBlob reproduces the capture-agent wire format: base64 of
// zlib-compressed bytes.
func encodeBlob(t *testing.T, raw []byte) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("Failed to compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close compressor: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCache_PutGet(t *testing.T) {
	c := New()

	t.Run("get on empty cache", func(t *testing.T) {
		if _, err := c.Get(0, KindFrame); err != model.ErrFrameNotFound {
			t.Errorf("Expected ErrFrameNotFound, got %v", err)
		}
	})

	t.Run("put then get returns the blob", func(t *testing.T) {
		c.Put(0, KindFrame, "blob-x")
		got, err := c.Get(0, KindFrame)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "blob-x" {
			t.Errorf("Expected blob-x, got %q", got)
		}
	})

	t.Run("overwrite wins", func(t *testing.T) {
		c.Put(0, KindFrame, "blob-y")
		got, _ := c.Get(0, KindFrame)
		if got != "blob-y" {
			t.Errorf("Expected blob-y after overwrite, got %q", got)
		}
	})

	t.Run("frame and preview slots are independent", func(t *testing.T) {
		c.Put(1, KindFrame, "frame-1")
		c.Put(1, KindPreview, "preview-1")

		if got, _ := c.Get(1, KindFrame); got != "frame-1" {
			t.Errorf("Expected frame-1, got %q", got)
		}
		if got, _ := c.Get(1, KindPreview); got != "preview-1" {
			t.Errorf("Expected preview-1, got %q", got)
		}
	})

	t.Run("displays are independent", func(t *testing.T) {
		c.Put(2, KindFrame, "frame-2")
		if got, _ := c.Get(1, KindFrame); got != "frame-1" {
			t.Errorf("Write to display 2 must not touch display 1, got %q", got)
		}
		if _, err := c.Get(3, KindFrame); err != model.ErrFrameNotFound {
			t.Error("Unwritten display should report not found")
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		raw := []byte("\xff\xd8\xff\xe0 fake jpeg payload")
		blob := encodeBlob(t, raw)

		got, err := Decode(blob)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("Decode returned %q, want %q", got, raw)
		}
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		if _, err := Decode("not*base64!"); err == nil {
			t.Error("Expected error for invalid base64")
		}
	})

	t.Run("rejects non-zlib payload", func(t *testing.T) {
		blob := base64.StdEncoding.EncodeToString([]byte("plain bytes"))
		if _, err := Decode(blob); err == nil {
			t.Error("Expected error for non-zlib payload")
		}
	})
}
