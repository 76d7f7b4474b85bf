package orchestrator

import (
	"context"
	"fmt"

	"github.com/johndauphine/db-utility/internal/logging"
)

// Clean truncates every non-excluded table with foreign key enforcement
// suspended. Truncates are independent; a failure stops the pass and leaves
// earlier tables empty. Enforcement is restored either way.
func (o *Orchestrator) Clean(ctx context.Context) (err error) {
	tables, err := userTables(ctx, o.db)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	if err := o.db.DisableForeignKeys(ctx); err != nil {
		return err
	}
	defer func() {
		if ferr := o.db.EnableForeignKeys(ctx); ferr != nil {
			if err == nil {
				err = ferr
			} else {
				logging.Error("Foreign key checks may still be disabled: %v", ferr)
			}
		}
	}()

	for _, table := range tables {
		if err := o.db.TruncateTable(ctx, table); err != nil {
			return err
		}
		logging.Debug("Truncated %s", table)
	}
	logging.Info("Cleaned %d tables", len(tables))
	return nil
}
