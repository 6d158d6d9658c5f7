package sockets

import "context"

// AnySocket accepts and emits anything unchanged.
type AnySocket struct {
	base
}

func (s *AnySocket) CompatibleWith(other Socket, _ bool) bool {
	return other != nil
}

func (s *AnySocket) HandleInput(_ context.Context, _ *Env, value any) (any, error) {
	return value, nil
}

func (s *AnySocket) HandleOutput(_ context.Context, _ *Env, value any) (any, error) {
	return value, nil
}

// PrimitiveSocket is the inert fallback for kinds this runtime does not know.
// It only connects to itself and to Any, and never changes a value.
type PrimitiveSocket struct {
	base
}

func (s *PrimitiveSocket) CompatibleWith(other Socket, noReverse bool) bool {
	return compatible(s, &s.base, other, noReverse)
}

func (s *PrimitiveSocket) HandleInput(_ context.Context, _ *Env, value any) (any, error) {
	return value, nil
}

func (s *PrimitiveSocket) HandleOutput(_ context.Context, _ *Env, value any) (any, error) {
	return value, nil
}
