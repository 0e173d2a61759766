package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/mealsync/internal/client/conflict"
)

func (c *Cli) runConflicts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: mealsync conflicts <list|resolve>")
	}

	switch args[0] {
	case "list":
		return c.runConflictsList(ctx)
	case "resolve":
		return c.runConflictsResolve(ctx, args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s. Use: list or resolve", args[0])
	}
}

func (c *Cli) runConflictsList(ctx context.Context) error {
	c.io.Println("=== Unresolved Conflicts ===")
	c.io.Println()

	conflicts, err := c.conflicts.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}

	if len(conflicts) == 0 {
		c.io.Println("No conflicts. Everything is in sync.")
		return nil
	}

	for i, cf := range conflicts {
		c.io.Printf("%d. %s %s\n", i+1, cf.EntityType, cf.EntityID)
		c.io.Printf("   Detected: %s\n", cf.DetectedAt.Format(time.RFC3339))
		c.io.Printf("   Your change:   %s (device %s)\n",
			cf.LocalVersion.LocalUpdatedAt.Format(time.RFC3339), cf.LocalChangedBy)
		c.io.Printf("   Their change:  %s (device %s)\n",
			cf.ServerVersion.LocalUpdatedAt.Format(time.RFC3339), cf.ServerChangedBy)
		c.io.Println()
	}

	c.io.Println("Use 'mealsync conflicts resolve <id> <local|server>' to pick a version.")

	return nil
}

func (c *Cli) runConflictsResolve(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mealsync conflicts resolve <id> <local|server>")
	}

	entityID := args[0]

	var choice conflict.Resolution
	switch args[1] {
	case "local", "mine":
		choice = conflict.ResolutionLocal
	case "server", "theirs":
		choice = conflict.ResolutionServer
	default:
		return fmt.Errorf("unknown choice: %s. Use 'local' or 'server'", args[1])
	}

	if err := c.conflicts.Resolve(ctx, entityID, choice); err != nil {
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	c.io.Printf("✓ Conflict resolved, %s version kept.\n", string(choice))

	return nil
}
