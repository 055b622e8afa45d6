package vulkan

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/scene"
)

func TestLightBufferRoundTrip(t *testing.T) {
	var lb LightBuffer
	lb.SetAmbient(scene.AmbientLight{Color: mgl32.Vec3{0.1, 0.2, 0.3}, Brightness: 0.5})
	lights := []scene.LightInstance{
		{Position: mgl32.Vec3{1, 2, 3}, Color: mgl32.Vec3{1, 0, 0}, Brightness: 4},
		{Position: mgl32.Vec3{-5, 0, 2.5}, Color: mgl32.Vec3{0, 1, 1}, Brightness: 0.25},
	}
	for _, light := range lights {
		if err := lb.Add(light); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	data := lb.Bytes()
	if len(data) != LightBufferSize || LightBufferSize != 1056 {
		t.Fatalf("unexpected buffer size %d", len(data))
	}
	header, decoded, err := DecodeLightBuffer(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if header.Ambient.Sub(mgl32.Vec4{0.1, 0.2, 0.3, 0.5}).Len() > 1e-5 {
		t.Errorf("ambient mismatch: %v", header.Ambient)
	}
	if len(decoded) != len(lights) {
		t.Fatalf("expected %d lights, got %d", len(lights), len(decoded))
	}
	for i, light := range lights {
		if decoded[i].Position.Vec3().Sub(light.Position).Len() > 1e-5 {
			t.Errorf("light %d position mismatch: %v", i, decoded[i].Position)
		}
		if decoded[i].Color.Sub(light.Color.Vec4(light.Brightness)).Len() > 1e-5 {
			t.Errorf("light %d color mismatch: %v", i, decoded[i].Color)
		}
	}
}

func TestLightBufferCapacity(t *testing.T) {
	var lb LightBuffer
	for i := 0; i < MaxLights; i++ {
		if err := lb.Add(scene.LightInstance{}); err != nil {
			t.Fatalf("light %d rejected: %v", i, err)
		}
	}
	if err := lb.Add(scene.LightInstance{}); !errors.Is(err, core.ErrLightCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if lb.Count() != MaxLights {
		t.Errorf("overflow must not change the count, got %d", lb.Count())
	}

	lb.Reset()
	if lb.Count() != 0 {
		t.Errorf("reset should clear lights")
	}
}

func TestLightBufferFillReportsDropped(t *testing.T) {
	var lb LightBuffer
	lights := make([]scene.LightInstance, MaxLights+2)
	err := lb.Fill(scene.AmbientLight{Brightness: 1}, lights)
	if !errors.Is(err, core.ErrLightCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if lb.Count() != MaxLights {
		t.Errorf("expected a full buffer, got %d", lb.Count())
	}
}

func TestDecodeLightBufferRejectsShortInput(t *testing.T) {
	if _, _, err := DecodeLightBuffer(make([]byte, 8)); err == nil {
		t.Errorf("expected an error for a truncated header")
	}
	var lb LightBuffer
	_ = lb.Add(scene.LightInstance{})
	if _, _, err := DecodeLightBuffer(lb.Bytes()[:40]); err == nil {
		t.Errorf("expected an error for a truncated light array")
	}
}
