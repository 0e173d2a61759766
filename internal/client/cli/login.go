package cli

import (
	"context"
	"fmt"
	"os"
	"time"
)

// runLogin сохраняет access token как локальную сессию.
// Токен берется из аргумента или из переменной MEALSYNC_TOKEN.
func (c *Cli) runLogin(ctx context.Context, args []string) error {
	token := os.Getenv("MEALSYNC_TOKEN")
	if len(args) > 0 {
		token = args[0]
	}
	if token == "" {
		return fmt.Errorf("missing token. Usage: mealsync login <token> (or set MEALSYNC_TOKEN)")
	}

	session, err := c.auth.SaveToken(ctx, token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println("✓ Logged in successfully!")
	c.io.Printf("Username:  %s\n", session.Username)
	c.io.Printf("Household: %s\n", session.HouseholdID)
	c.io.Printf("Device ID: %s\n", session.DeviceID)
	if session.ExpiresAt > 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))
	}
	c.io.Println()
	c.io.Println("Run 'mealsync sync' to pull your household data.")

	return nil
}

// runLogout удаляет локальную сессию; кеш и очередь не трогаются
func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logged out.")
	c.io.Println("Local data and queued changes are kept for the next login.")

	return nil
}
