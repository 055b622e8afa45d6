package vulkan

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/volchara/engine/core"
)

func TestTextureTableIndicesAreNeverReused(t *testing.T) {
	tt := NewTextureTable(MaxTextures)

	var got []uint32
	for _, name := range []string{"a.png", "b.png", "a.png"} {
		index, err := tt.Append(&VulkanTexture{Name: name})
		if err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
		got = append(got, index)
	}
	for i, want := range []uint32{0, 1, 2} {
		if got[i] != want {
			t.Fatalf("expected indices 0 1 2, got %v", got)
		}
	}

	texture, err := tt.Get(2)
	if err != nil || texture.Name != "a.png" {
		t.Errorf("unexpected texture at 2: %v %v", texture, err)
	}
	if _, err := tt.Get(3); err == nil {
		t.Errorf("expected an out of range error")
	}
}

func TestTextureTablePathCache(t *testing.T) {
	tt := NewTextureTable(4)
	if _, ok := tt.Lookup("uv.png"); ok {
		t.Fatalf("empty cache should miss")
	}
	index, _ := tt.Append(&VulkanTexture{Name: "uv.png"})
	tt.Remember("uv.png", index)
	if cached, ok := tt.Lookup("uv.png"); !ok || cached != index {
		t.Errorf("expected cached index %d, got %d %v", index, cached, ok)
	}
}

func TestTextureTableCapacity(t *testing.T) {
	tt := NewTextureTable(2)
	for i := 0; i < 2; i++ {
		if _, err := tt.Append(&VulkanTexture{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := tt.Append(&VulkanTexture{Name: "overflow"}); !errors.Is(err, core.ErrTextureCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if tt.Len() != 2 {
		t.Errorf("a rejected texture must not be stored, len=%d", tt.Len())
	}
}

func TestCheckerPixels(t *testing.T) {
	width, height, pixels := CheckerPixels()
	if width != 2 || height != 2 || len(pixels) != 16 {
		t.Fatalf("expected a 2x2 RGBA image, got %dx%d with %d bytes", width, height, len(pixels))
	}
	// Diagonals match.
	if pixels[0] != pixels[12] || pixels[4] != pixels[8] || pixels[0] == pixels[4] {
		t.Errorf("unexpected checker layout %v", pixels)
	}
}

func TestTextureTablePublishRollsBackFailedBind(t *testing.T) {
	tt := NewTextureTable(MaxTextures)
	bound := func(uint32) error { return nil }
	if _, err := tt.Publish(&VulkanTexture{Name: "default"}, bound); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	bindErr := errors.New("bind failed")
	_, err := tt.Publish(&VulkanTexture{Name: "broken"}, func(index uint32) error {
		if index != 1 {
			t.Errorf("bind got index %d, want 1", index)
		}
		return bindErr
	})
	if !errors.Is(err, bindErr) {
		t.Fatalf("Publish error = %v, want %v", err, bindErr)
	}
	if tt.Len() != 1 {
		t.Fatalf("Len = %d after failed bind, want 1", tt.Len())
	}

	index, err := tt.Publish(&VulkanTexture{Name: "next"}, bound)
	if err != nil || index != 1 {
		t.Fatalf("Publish after rollback = %d, %v; want 1", index, err)
	}
}
