package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/mealsync/internal/client/lock"
	"github.com/iudanet/mealsync/internal/models"
)

func (c *Cli) runLock(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing plan id. Usage: mealsync lock <plan-id>")
	}

	id := args[0]

	err := c.locks.Acquire(ctx, models.EntityTypeMealPlan, id)
	if err != nil {
		var lockedErr *lock.LockedError
		if errors.As(err, &lockedErr) {
			c.io.Printf("Plan is locked by %s since %s.\n",
				lockedErr.LockedBy, lockedErr.LockedAt.Format(time.RFC3339))
			c.io.Println("If the lock looks abandoned, use 'mealsync unlock --force <plan-id>'.")
			return fmt.Errorf("lock is held by another user")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	c.io.Println("✓ Lock acquired.")
	c.io.Printf("Remember to 'mealsync unlock %s' when you finish editing.\n", id)

	return nil
}

func (c *Cli) runUnlock(ctx context.Context, args []string) error {
	force := false
	if len(args) > 0 && args[0] == "--force" {
		force = true
		args = args[1:]
	}
	if len(args) == 0 {
		return fmt.Errorf("missing plan id. Usage: mealsync unlock [--force] <plan-id>")
	}

	id := args[0]

	var err error
	if force {
		err = c.locks.ForceUnlock(ctx, models.EntityTypeMealPlan, id)
	} else {
		err = c.locks.Release(ctx, models.EntityTypeMealPlan, id)
	}
	if err != nil {
		var lockedErr *lock.LockedError
		if errors.As(err, &lockedErr) {
			return fmt.Errorf("lock is held by %s and is still live", lockedErr.LockedBy)
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}

	c.io.Println("✓ Lock released.")

	return nil
}
