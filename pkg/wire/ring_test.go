package wire

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingFIFO(t *testing.T) {
	r := NewRing(8)
	require.Equal(t, 8, r.Cap())
	require.Equal(t, 0, r.Len())

	_, ok := r.Pop()
	require.False(t, ok)

	for i := byte(1); i <= 5; i++ {
		r.Push(i)
	}
	require.Equal(t, 5, r.Len())
	for i := byte(1); i <= 5; i++ {
		b, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, i, b)
	}
	require.Equal(t, 0, r.Len())
}

func TestRingOverwriteOldest(t *testing.T) {
	const capacity = 16
	r := NewRing(capacity)

	// Pushing capacity+1 bytes evicts exactly the first one.
	for i := byte(1); i <= capacity+1; i++ {
		r.Push(i)
	}
	require.Equal(t, capacity, r.Len())
	for i := byte(2); i <= capacity+1; i++ {
		b, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, i, b)
	}
	require.Equal(t, 0, r.Len())
	_, ok := r.Pop()
	require.False(t, ok)
}

func TestRingWrapAround(t *testing.T) {
	r := NewRing(4)
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			r.Push(byte(round*3 + i))
		}
		for i := 0; i < 3; i++ {
			b, ok := r.Pop()
			require.True(t, ok)
			require.Equal(t, byte(round*3+i), b)
		}
	}
}

func TestRingConcurrent(t *testing.T) {
	// One producer racing one consumer: occupancy must stay within
	// bounds and no byte may be observed twice or out of order. With
	// overwrite-oldest overflow the consumed values form a strictly
	// increasing subsequence of what was produced.
	const capacity = 16
	const rounds = 200

	for round := 0; round < rounds; round++ {
		r := NewRing(capacity)
		var wg sync.WaitGroup
		wg.Add(1)
		done := make(chan struct{})
		go func() {
			defer wg.Done()
			for i := 0; i < 256; i++ {
				r.Push(byte(i)) // each value is unique within the round
			}
			close(done)
		}()

		var got []byte
		for {
			if n := r.Len(); n < 0 || n > capacity {
				t.Fatalf("occupancy out of bounds: %d", n)
			}
			b, ok := r.Pop()
			if ok {
				got = append(got, b)
				continue
			}
			select {
			case <-done:
			default:
				continue
			}
			if b, ok := r.Pop(); ok { // drain what arrived before done
				got = append(got, b)
				continue
			}
			break
		}
		wg.Wait()

		require.NotEmpty(t, got)
		for i := 1; i < len(got); i++ {
			require.Greater(t, got[i], got[i-1],
				"byte replayed or reordered in round %d", round)
		}
	}
}
