// Package iterx provides a single-pass iterator that reports a terminal error.
package iterx

import (
	"context"
	"iter"
)

// Seq is an iterator over values of type T that also carries an error.
// Err is meaningful only after the sequence returned by Each is drained or
// abandoned.
type Seq[T any] interface {
	Each(context.Context) iter.Seq[T]
	Err() error
}

type seq[T any] struct {
	err error
	fn  func(ctx context.Context, yield func(T) bool) error
}

// New builds a Seq from fn, which drives iteration and returns the error
// that ended it, if any.
func New[T any](fn func(ctx context.Context, yield func(T) bool) error) Seq[T] {
	return &seq[T]{fn: fn}
}

func (s *seq[T]) Each(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		s.err = s.fn(ctx, yield)
	}
}

func (s *seq[T]) Err() error {
	return s.err
}

// Error returns a Seq that yields nothing and fails with err.
func Error[T any](err error) Seq[T] {
	return New(func(context.Context, func(T) bool) error {
		return err
	})
}

// Collect drains s into a slice.
func Collect[T any](ctx context.Context, s Seq[T]) ([]T, error) {
	var out []T
	for v := range s.Each(ctx) {
		out = append(out, v)
	}
	return out, s.Err()
}
