package scheduling

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = k.With(func() error {
				counter++
				return nil
			}, "PRV_1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexOppositeOrderDoesNotDeadlock(t *testing.T) {
	k := NewKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := k.Lock("PRV_1", "PRV_2")
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := k.Lock("PRV_2", "PRV_1")
			unlock()
		}()
	}
	wg.Wait()
}

func TestKeyedMutexDuplicateKeys(t *testing.T) {
	k := NewKeyedMutex()

	unlock := k.Lock("PRV_1", "PRV_1")
	unlock()

	unlock = k.Lock("PRV_1")
	unlock()
}
