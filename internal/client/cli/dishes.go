package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/mealsync/internal/models"
)

func (c *Cli) runDishes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: mealsync dishes <list|add|delete>")
	}

	switch args[0] {
	case "list":
		return c.runDishesList(ctx)
	case "add":
		return c.runDishesAdd(ctx, args[1:])
	case "delete":
		return c.runDishesDelete(ctx, args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s. Use: list, add, or delete", args[0])
	}
}

func (c *Cli) runDishesList(ctx context.Context) error {
	c.io.Println("=== Dishes ===")
	c.io.Println()

	dishes, err := c.data.ListDishes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list dishes: %w", err)
	}

	if len(dishes) == 0 {
		c.io.Println("No dishes found.")
		c.io.Println()
		c.io.Println("Use 'mealsync dishes add <name>' to add your first dish.")
		return nil
	}

	c.io.Printf("Found %d dish(es):\n", len(dishes))
	c.io.Println()

	for i, dish := range dishes {
		c.io.Printf("%d. %s\n", i+1, dish.Name)
		c.io.Printf("   ID: %s\n", dish.ID)
		if dish.Description != "" {
			c.io.Printf("   Description: %s\n", dish.Description)
		}
		if len(dish.Tags) > 0 {
			c.io.Printf("   Tags: %s\n", strings.Join(dish.Tags, ", "))
		}
		// Показываем статус, если изменение еще не подтверждено сервером
		if status, err := c.data.SyncStatus(ctx, dish.ID); err == nil && status != models.StatusSynced {
			c.io.Printf("   Sync: %s\n", string(status))
		}
		c.io.Println()
	}

	return nil
}

func (c *Cli) runDishesAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing dish name. Usage: mealsync dishes add <name> [description]")
	}

	name := args[0]
	description := ""
	if len(args) > 1 {
		description = strings.Join(args[1:], " ")
	}

	dish, err := c.data.AddDish(ctx, name, description, nil)
	if err != nil {
		return fmt.Errorf("failed to add dish: %w", err)
	}

	c.io.Printf("✓ Added '%s' (id %s)\n", dish.Name, dish.ID)
	c.io.Println("The change is saved locally and will sync automatically.")

	return nil
}

func (c *Cli) runDishesDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing dish id. Usage: mealsync dishes delete <id>")
	}

	id := args[0]

	dish, err := c.data.GetDish(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load dish: %w", err)
	}

	ok, err := c.io.Confirm(fmt.Sprintf("Delete '%s'?", dish.Name))
	if err != nil {
		return err
	}
	if !ok {
		c.io.Println("Cancelled.")
		return nil
	}

	if err := c.data.DeleteDish(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dish: %w", err)
	}

	c.io.Printf("✓ Deleted '%s'\n", dish.Name)

	return nil
}
