package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== MealSync Status ===")
	c.io.Println()

	// Проверяем наличие сохраненной сессии
	isAuth, err := c.auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'mealsync login <token>' to authenticate.")
		return nil
	}

	session, err := c.auth.Session(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username:  %s\n", session.Username)
	c.io.Printf("Household: %s\n", session.HouseholdID)
	c.io.Printf("Device ID: %s\n", session.DeviceID)

	if session.ExpiresAt > 0 {
		expiresAt := time.Unix(session.ExpiresAt, 0)
		remaining := time.Until(expiresAt)
		c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
		if remaining > 0 {
			c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
		} else {
			c.io.Println("⚠️  Token has expired. Please login again.")
		}
	}

	c.io.Println()
	c.io.Printf("Sync state: %s\n", string(c.engine.State()))

	lastSync, err := c.engine.LastSync(ctx)
	if err == nil && !lastSync.IsZero() {
		c.io.Printf("Last full sync: %s\n", lastSync.Format(time.RFC3339))
	}

	// Очередь неотправленных изменений
	pending, err := c.queue.PendingCount(ctx)
	if err != nil {
		c.io.Printf("\nWarning: Failed to get pending queue count: %v\n", err)
	} else if pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d change(s) waiting to be pushed\n", pending)
	} else {
		c.io.Println("✓ All changes pushed to server")
	}

	failed, err := c.queue.Failed(ctx)
	if err == nil && len(failed) > 0 {
		c.io.Printf("⚠️  Failed operations: %d (run 'mealsync retry')\n", len(failed))
		for _, op := range failed {
			c.io.Printf("   %s %s: %s\n", string(op.OperationType), op.EntityID, op.LastError)
		}
	}

	// Неразрешенные конфликты
	conflicts, err := c.conflicts.Count(ctx)
	if err == nil && conflicts > 0 {
		c.io.Printf("⚠️  Unresolved conflicts: %d (run 'mealsync conflicts list')\n", conflicts)
	}

	return nil
}
