package remover

import "context"

// Remover transforms an input photo into the same image with the background
// removed. Implementations do not retry; retry policy, if any, belongs to
// the caller.
type Remover interface {
	Remove(ctx context.Context, image []byte) ([]byte, error)
}
