// Package render displays generated markup without letting it reach the
// host that produced it.
package render

import (
	"context"
	"errors"
)

// ErrRenderFailure wraps every error a renderer returns. Callers log it and
// carry on: a failed render never invalidates the markup itself.
var ErrRenderFailure = errors.New("render failure")

// Renderer shows one complete document.
type Renderer interface {
	Render(ctx context.Context, markup string) error
}

// Func adapts a plain function to Renderer.
type Func func(ctx context.Context, markup string) error

func (f Func) Render(ctx context.Context, markup string) error { return f(ctx, markup) }

// Multi renders to every renderer in order and joins their errors.
type Multi []Renderer

func (m Multi) Render(ctx context.Context, markup string) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Render(ctx, markup); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard accepts every document and does nothing with it.
var Discard Renderer = Func(func(context.Context, string) error { return nil })
