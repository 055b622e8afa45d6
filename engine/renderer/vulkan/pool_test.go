package vulkan

import (
	"errors"
	"sync"
	"testing"
)

func TestLockPoolSerializesQueueCalls(t *testing.T) {
	pool := NewVulkanLockPool()

	var wg sync.WaitGroup
	inside, maxInside := 0, 0
	var mu sync.Mutex
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeQueueCall(0, func() error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("expected one caller at a time, saw %d", maxInside)
	}
}

func TestLockPoolReturnsCallError(t *testing.T) {
	pool := NewVulkanLockPool()
	want := errors.New("submit failed")
	if err := pool.SafeQueueCall(1, func() error { return want }); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}
