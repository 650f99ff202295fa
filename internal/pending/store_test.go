package pending

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut_LastWriteWins(t *testing.T) {
	s := New()
	s.Put("/a", []any{1})
	s.Put("/a", []any{2})

	v, ok := s.TakeIfPresent("/a")
	require.True(t, ok)
	assert.Equal(t, []any{2}, v)
}

func TestTakeIfPresent_Removes(t *testing.T) {
	s := New()
	s.Put("/a", []any{"x"})

	_, ok := s.TakeIfPresent("/a")
	require.True(t, ok)

	_, ok = s.TakeIfPresent("/a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestPeek_Leaves(t *testing.T) {
	s := New()
	s.Put("/a", []any{1.5})

	v, ok := s.Peek("/a")
	require.True(t, ok)
	assert.Equal(t, []any{1.5}, v)

	_, ok = s.Peek("/a")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestPut_CopiesArgs(t *testing.T) {
	s := New()
	args := []any{1, 2}
	s.Put("/a", args)
	args[0] = 99

	v, _ := s.Peek("/a")
	assert.Equal(t, []any{1, 2}, v)
}

func TestPut_EmptyArgsStillPresent(t *testing.T) {
	s := New()
	s.Put("/live/song/start_playing", nil)

	v, ok := s.TakeIfPresent("/live/song/start_playing")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestClearAndReset(t *testing.T) {
	s := New()
	s.Put("/a", []any{1})
	s.Put("/b", []any{2})

	s.Clear("/a")
	_, ok := s.Peek("/a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	s.Clear("/missing") // no-op

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		addr := fmt.Sprintf("/addr/%d", i%4)
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			s.Put(addr, []any{i})
		}(i)
		go func() {
			defer wg.Done()
			s.TakeIfPresent(addr)
		}()
		go func() {
			defer wg.Done()
			s.Clear(addr)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 4)
}
