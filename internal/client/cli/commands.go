package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "login":
		err = c.runLogin(ctx, args)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "sync":
		err = c.runSync(ctx)
	case "dishes":
		err = c.runDishes(ctx, args)
	case "plan":
		err = c.runPlan(ctx, args)
	case "lock":
		err = c.runLock(ctx, args)
	case "unlock":
		err = c.runUnlock(ctx, args)
	case "conflicts":
		err = c.runConflicts(ctx, args)
	case "retry":
		err = c.runRetry(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
