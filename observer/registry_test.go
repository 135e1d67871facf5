package observer

import (
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskwatch/axcore/ax"
)

func TestRegistryTokensDistinctAndMonotonic(t *testing.T) {
	r := NewRegistry()
	seen := make(map[uint64]bool)
	var last uint64
	for i := 0; i < 100; i++ {
		tok := r.Register(make(chan Event, 1))
		require.False(t, seen[tok], "token %d reused", tok)
		require.Greater(t, tok, last)
		seen[tok] = true
		last = tok
	}
	assert.Equal(t, 100, r.Len())
}

func TestRegistryRemoveExactlyOnce(t *testing.T) {
	r := NewRegistry()
	tok := r.Register(make(chan Event, 1))
	assert.True(t, r.Remove(tok))
	assert.False(t, r.Remove(tok))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryDeliverAfterRemoveIsCountedMiss(t *testing.T) {
	r := NewRegistry()
	ch := make(chan Event, 1)
	tok := r.Register(ch)
	require.True(t, r.Remove(tok))

	delivered, found := r.Deliver(tok, Event{Notification: ax.NotificationValueChanged})
	assert.False(t, delivered)
	assert.False(t, found)
	assert.Equal(t, uint64(1), r.Missed())
	assert.Empty(t, ch)
}

func TestRegistryDeliverFullBufferDropsNewest(t *testing.T) {
	r := NewRegistry()
	ch := make(chan Event, 1)
	tok := r.Register(ch)

	delivered, found := r.Deliver(tok, Event{Notification: "first"})
	require.True(t, delivered)
	require.True(t, found)

	delivered, found = r.Deliver(tok, Event{Notification: "second"})
	assert.False(t, delivered)
	assert.True(t, found)

	ev := <-ch
	assert.Equal(t, "first", ev.Notification)
}

func TestRegistryConcurrentRegisterRemove(t *testing.T) {
	r := NewRegistry()
	const workers = 16
	var wg sync.WaitGroup
	tokens := make([][]uint64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tok := r.Register(make(chan Event, 1))
				tokens[i] = append(tokens[i], tok)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, toks := range tokens {
		for _, tok := range toks {
			require.False(t, seen[tok], "token %d minted twice", tok)
			seen[tok] = true
			require.True(t, r.Remove(tok))
		}
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistryInterleavingProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 60
	properties := gopter.NewProperties(params)

	properties.Property("tokens stay unique and Len tracks live entries", prop.ForAll(
		func(keep []bool) bool {
			r := NewRegistry()
			live := 0
			seen := map[uint64]bool{}
			for _, k := range keep {
				tok := r.Register(make(chan Event, 1))
				if seen[tok] {
					return false
				}
				seen[tok] = true
				if k {
					live++
					continue
				}
				if !r.Remove(tok) {
					return false
				}
			}
			return r.Len() == live
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestConvertPayloadDropsUndecodableEntries(t *testing.T) {
	payload := map[string]any{
		"text":  "hello",
		"count": int64(3),
		"bogus": struct{ X int }{X: 1},
	}
	out := convertPayload(payload)
	require.Len(t, out, 2)
	assert.Equal(t, ax.StringValue("hello"), out["text"])
	assert.Equal(t, ax.IntValue(3), out["count"])
}

func TestConvertPayloadEmpty(t *testing.T) {
	assert.Nil(t, convertPayload(nil))
	assert.Nil(t, convertPayload(map[string]any{}))
}
