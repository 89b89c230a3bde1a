// Package capability names operations that touch external state so callers
// depend on "can do O" instead of a concrete backend.
package capability

import "context"

// Capability performs operations of type Op. A nil error means the operation
// took effect.
type Capability[Op any] interface {
	Perform(ctx context.Context, op Op) error
}

// Func adapts a plain function to Capability.
type Func[Op any] func(ctx context.Context, op Op) error

func (f Func[Op]) Perform(ctx context.Context, op Op) error {
	return f(ctx, op)
}
