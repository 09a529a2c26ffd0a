package auth

import "context"

// Gate guards operations that need an open session.
type Gate interface {
	Require(ctx context.Context) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) error

func (f GateFunc) Require(ctx context.Context) error {
	return f(ctx)
}

// Open is a gate that never blocks.
var Open Gate = GateFunc(func(context.Context) error { return nil })
