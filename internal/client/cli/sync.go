package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	isAuth, err := c.auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}
	if !isAuth {
		return fmt.Errorf("not authenticated. Please run 'mealsync login' first")
	}

	c.io.Println("Pushing queued changes...")
	if err := c.engine.Push(ctx); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	c.io.Println("Refreshing local cache from server...")
	if err := c.engine.FullSync(ctx); err != nil {
		return fmt.Errorf("full sync failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Synchronization completed successfully!")

	// Конфликты могли появиться в ходе синхронизации
	count, err := c.conflicts.Count(ctx)
	if err == nil && count > 0 {
		c.io.Println()
		c.io.Printf("⚠️  %d conflict(s) need your attention. Run 'mealsync conflicts list'.\n", count)
	}

	return nil
}

func (c *Cli) runRetry(ctx context.Context) error {
	failed, err := c.queue.Failed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list failed operations: %w", err)
	}

	if len(failed) == 0 {
		c.io.Println("No failed operations.")
		return nil
	}

	for _, op := range failed {
		if err := c.queue.Retry(ctx, op.ID); err != nil {
			return fmt.Errorf("failed to reset operation %s: %w", op.ID, err)
		}
		c.io.Printf("Re-enabled %s %s\n", string(op.OperationType), op.EntityID)
	}

	c.io.Println()
	c.io.Printf("✓ %d operation(s) will be retried on the next sync.\n", len(failed))

	return nil
}
