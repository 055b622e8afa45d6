package vulkan

import "testing"

func TestGrowSize(t *testing.T) {
	tests := []struct {
		current, needed, want uint64
	}{
		{1024, 100, 1024},
		{1024, 1024, 1024},
		{1024, 1025, 2048},
		{1024, 5000, 8192},
		{0, 3, 4},
	}
	for _, tt := range tests {
		if got := GrowSize(tt.current, tt.needed); got != tt.want {
			t.Errorf("GrowSize(%d, %d): expected %d, got %d", tt.current, tt.needed, tt.want, got)
		}
	}
}
