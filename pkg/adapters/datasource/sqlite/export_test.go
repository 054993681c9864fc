package sqlite

import (
	"context"
	"fmt"
)

// Exec runs a statement against the adapter's handle. Only ":memory:"
// adapters are writable.
func (a *Adapter) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
