package client_rate_limiter

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type counterState struct {
	n int
}

func TestClientStateStore_Update(t *testing.T) {
	store := NewClientStateStore[counterState]()

	inits := 0
	init := func() counterState {
		inits++
		return counterState{n: 100}
	}
	incr := func(s *counterState) Decision {
		s.n++
		return Allow
	}

	assert.Equal(t, Allow, store.Update("a", init, incr))
	assert.Equal(t, Allow, store.Update("a", init, incr))
	assert.Equal(t, Allow, store.Update("b", init, incr))

	assert.Equal(t, 2, inits)
	assert.Equal(t, 2, store.Len())

	var got int
	store.Update("a", init, func(s *counterState) Decision {
		got = s.n
		return Reject
	})
	assert.Equal(t, 102, got)
}

func TestClientStateStore_ConcurrentFirstAccessSharesState(t *testing.T) {
	const goroutines = 100

	store := NewClientStateStore[counterState]()

	var inits atomic.Int64
	var wg sync.WaitGroup
	ready := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			store.Update("same-client", func() counterState {
				inits.Add(1)
				return counterState{}
			}, func(s *counterState) Decision {
				s.n++
				return Allow
			})
		}()
	}
	close(ready)
	wg.Wait()

	var got int
	store.Update("same-client", nil, func(s *counterState) Decision {
		got = s.n
		return Allow
	})

	// losing candidates may be built, but only one state ever receives updates
	assert.GreaterOrEqual(t, inits.Load(), int64(1))
	assert.Equal(t, goroutines, got)
	assert.Equal(t, 1, store.Len())
}
