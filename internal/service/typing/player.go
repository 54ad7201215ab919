// Package typing replays a finished response one character at a time to
// imitate live typing. Playback is cosmetic: the caller always gets the
// full text back, whatever happens to the render.
package typing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Renderer draws the partial response. Each call replaces what the previous
// call drew.
type Renderer interface {
	Render(partial string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(partial string) error

// Render calls f(partial).
func (f RendererFunc) Render(partial string) error {
	return f(partial)
}

// Player paces playback at a fixed per-character delay.
type Player struct {
	delay time.Duration
}

// NewPlayer returns a player with the given inter-character delay. A zero
// or negative delay renders the whole text in a single step.
func NewPlayer(delay time.Duration) *Player {
	if delay < 0 {
		delay = 0
	}
	return &Player{delay: delay}
}

// Delay reports the inter-character delay.
func (p *Player) Delay() time.Duration {
	return p.delay
}

// Play reveals text through r one rune at a time and returns text. If ctx
// is cancelled or the renderer fails, playback stops early and the error is
// returned alongside the full text.
func (p *Player) Play(ctx context.Context, text string, r Renderer) (string, error) {
	if p.delay <= 0 || text == "" {
		return text, r.Render(text)
	}

	limiter := rate.NewLimiter(rate.Every(p.delay), 1)
	for i := range text {
		if i == 0 {
			continue
		}
		if err := p.step(ctx, limiter, r, text[:i]); err != nil {
			return text, err
		}
	}
	return text, p.step(ctx, limiter, r, text)
}

func (p *Player) step(ctx context.Context, limiter *rate.Limiter, r Renderer, partial string) error {
	if err := limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return r.Render(partial)
}

// Suffix returns the part of partial not yet shown, given that the previous
// render showed prev. Renderers that append instead of redraw use it.
func Suffix(prev, partial string) string {
	if len(partial) >= len(prev) && partial[:len(prev)] == prev {
		return partial[len(prev):]
	}
	return partial
}
