package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_SerializesSameKey(t *testing.T) {
	set := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := set.Lock("c1")
			v := counter
			v++
			counter = v
			unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
	require.Equal(t, 0, set.held())
}

func TestSet_IndependentKeys(t *testing.T) {
	set := New()
	unlockA := set.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := set.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	require.Equal(t, 1, set.held())
	unlockA()
	require.Equal(t, 0, set.held())
}
