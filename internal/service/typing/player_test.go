package typing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	frames []string
}

func (r *recorder) Render(partial string) error {
	r.frames = append(r.frames, partial)
	return nil
}

func TestPlayRevealsEveryPrefix(t *testing.T) {
	rec := &recorder{}
	got, err := NewPlayer(time.Microsecond).Play(context.Background(), "Try X 💻", rec)

	require.NoError(t, err)
	assert.Equal(t, "Try X 💻", got)
	assert.Equal(t, []string{"T", "Tr", "Try", "Try ", "Try X", "Try X ", "Try X 💻"}, rec.frames)
}

func TestPlayWithoutDelayRendersOnce(t *testing.T) {
	rec := &recorder{}
	got, err := NewPlayer(0).Play(context.Background(), "hello", rec)

	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, []string{"hello"}, rec.frames)
}

func TestPlayPacesCharacters(t *testing.T) {
	rec := &recorder{}
	start := time.Now()
	_, err := NewPlayer(5*time.Millisecond).Play(context.Background(), "abcde", rec)
	require.NoError(t, err)

	// First rune is immediate, the remaining four wait one delay each.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Len(t, rec.frames, 5)
}

func TestPlayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	r := RendererFunc(func(partial string) error {
		if len(partial) == 3 {
			cancel()
		}
		return rec.Render(partial)
	})

	got, err := NewPlayer(time.Millisecond).Play(ctx, "abcdefghij", r)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "abcdefghij", got, "full text is returned even when playback stops")
	assert.Len(t, rec.frames, 3)
}

func TestPlayStopsOnRenderError(t *testing.T) {
	boom := errors.New("client gone")
	calls := 0
	r := RendererFunc(func(string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	got, err := NewPlayer(time.Microsecond).Play(context.Background(), "abcdef", r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "abcdef", got)
	assert.Equal(t, 2, calls)
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "c", Suffix("ab", "abc"))
	assert.Equal(t, "abc", Suffix("", "abc"))
	assert.Equal(t, "xyz", Suffix("ab", "xyz"))
	assert.Equal(t, "", Suffix("abc", "abc"))
}
