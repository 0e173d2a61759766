package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/mealsync/internal/client/lock"
	"github.com/iudanet/mealsync/internal/models"
)

func (c *Cli) runPlan(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: mealsync plan <list|show|create|set|delete>")
	}

	switch args[0] {
	case "list":
		return c.runPlanList(ctx)
	case "show":
		return c.runPlanShow(ctx, args[1:])
	case "create":
		return c.runPlanCreate(ctx, args[1:])
	case "set":
		return c.runPlanSet(ctx, args[1:])
	case "delete":
		return c.runPlanDelete(ctx, args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s. Use: list, show, create, set, or delete", args[0])
	}
}

func (c *Cli) runPlanList(ctx context.Context) error {
	c.io.Println("=== Meal Plans ===")
	c.io.Println()

	plans, err := c.data.ListMealPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list meal plans: %w", err)
	}

	if len(plans) == 0 {
		c.io.Println("No meal plans found.")
		c.io.Println()
		c.io.Println("Use 'mealsync plan create <week-start>' to start planning.")
		return nil
	}

	for i, plan := range plans {
		c.io.Printf("%d. Week of %s\n", i+1, plan.WeekStart)
		c.io.Printf("   ID: %s\n", plan.ID)
		c.io.Printf("   Entries: %d\n", len(plan.Entries))
		if status, err := c.data.SyncStatus(ctx, plan.ID); err == nil && status != models.StatusSynced {
			c.io.Printf("   Sync: %s\n", string(status))
		}
		c.io.Println()
	}

	return nil
}

func (c *Cli) runPlanShow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing plan id. Usage: mealsync plan show <id>")
	}

	plan, err := c.data.GetMealPlan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load meal plan: %w", err)
	}

	c.io.Printf("=== Week of %s ===\n", plan.WeekStart)
	c.io.Println()

	if len(plan.Entries) == 0 {
		c.io.Println("No meals planned yet.")
		return nil
	}

	for _, entry := range plan.Entries {
		name := entry.DishID
		if dish, err := c.data.GetDish(ctx, entry.DishID); err == nil {
			name = dish.Name
		}
		c.io.Printf("%s  %-10s %s\n", entry.Date, entry.Meal, name)
	}

	// Предупреждаем, если план сейчас редактирует кто-то другой
	status, err := c.locks.Check(ctx, models.EntityTypeMealPlan, plan.ID)
	if err == nil && status.IsLocked && !status.IsOwn && !status.IsStale {
		c.io.Println()
		c.io.Printf("⚠️  Currently being edited by %s\n", status.LockedBy)
	}

	return nil
}

func (c *Cli) runPlanCreate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing week start date. Usage: mealsync plan create <YYYY-MM-DD>")
	}

	plan, err := c.data.CreateMealPlan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}

	c.io.Printf("✓ Created plan for week of %s (id %s)\n", plan.WeekStart, plan.ID)

	return nil
}

func (c *Cli) runPlanSet(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: mealsync plan set <id> <date> <meal> <dish-id>")
	}

	planID, date, meal, dishID := args[0], args[1], args[2], args[3]

	plan, err := c.data.GetMealPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to load meal plan: %w", err)
	}

	// Слот (дата, прием пищи) уникален - существующая позиция заменяется
	replaced := false
	for i, entry := range plan.Entries {
		if entry.Date == date && entry.Meal == meal {
			plan.Entries[i].DishID = dishID
			replaced = true
			break
		}
	}
	if !replaced {
		plan.Entries = append(plan.Entries, models.MealPlanEntry{
			Date:   date,
			Meal:   meal,
			DishID: dishID,
		})
	}

	if err := c.data.UpdateMealPlan(ctx, plan); err != nil {
		var lockedErr *lock.LockedError
		if errors.As(err, &lockedErr) {
			return fmt.Errorf("plan is being edited by %s, try again later", lockedErr.LockedBy)
		}
		return fmt.Errorf("failed to update meal plan: %w", err)
	}

	c.io.Printf("✓ Set %s for %s %s\n", dishID, date, meal)

	return nil
}

func (c *Cli) runPlanDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing plan id. Usage: mealsync plan delete <id>")
	}

	plan, err := c.data.GetMealPlan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load meal plan: %w", err)
	}

	ok, err := c.io.Confirm(fmt.Sprintf("Delete plan for week of %s?", plan.WeekStart))
	if err != nil {
		return err
	}
	if !ok {
		c.io.Println("Cancelled.")
		return nil
	}

	if err := c.data.DeleteMealPlan(ctx, plan.ID); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}

	c.io.Printf("✓ Deleted plan for week of %s\n", plan.WeekStart)

	return nil
}
