package cli

import (
	"fmt"

	"github.com/iudanet/mealsync/internal/client/auth"
	"github.com/iudanet/mealsync/internal/client/conflict"
	"github.com/iudanet/mealsync/internal/client/data"
	"github.com/iudanet/mealsync/internal/client/iocli"
	"github.com/iudanet/mealsync/internal/client/lock"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/sync"
)

type Cli struct {
	io        iocli.IO
	auth      *auth.Service
	data      *data.Service
	engine    *sync.Engine
	conflicts *conflict.Service
	locks     *lock.Manager
	queue     *queue.Queue
}

func New(
	io iocli.IO,
	authService *auth.Service,
	dataService *data.Service,
	engine *sync.Engine,
	conflicts *conflict.Service,
	locks *lock.Manager,
	q *queue.Queue,
) *Cli {
	return &Cli{
		io:        io,
		auth:      authService,
		data:      dataService,
		engine:    engine,
		conflicts: conflicts,
		locks:     locks,
		queue:     q,
	}
}

func PrintUsage() {
	fmt.Println("MealSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mealsync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version          Show version information")
	fmt.Println("  --server URL       Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH          Path to local cache database (default: mealsync-client.db)")
	fmt.Println("  --session PATH     Path to session database (default: mealsync-session.db)")
	fmt.Println("  --offline          Start in offline mode, no network calls")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login <token>                 Save access token (or set MEALSYNC_TOKEN)")
	fmt.Println("  logout                        Remove the local session")
	fmt.Println("  status                        Show session, queue and conflict status")
	fmt.Println("  sync                          Full sync with server, then push queued changes")
	fmt.Println("  dishes list                   List dishes")
	fmt.Println("  dishes add <name> [desc]      Add a dish")
	fmt.Println("  dishes delete <id>            Delete a dish")
	fmt.Println("  plan list                     List weekly meal plans")
	fmt.Println("  plan show <id>                Show a meal plan")
	fmt.Println("  plan create <week-start>      Create a plan for the week (YYYY-MM-DD)")
	fmt.Println("  plan set <id> <date> <meal> <dish-id>")
	fmt.Println("                                Set a dish for a meal slot")
	fmt.Println("  plan delete <id>              Delete a meal plan")
	fmt.Println("  lock <plan-id>                Take the edit lock on a plan")
	fmt.Println("  unlock <plan-id>              Release the edit lock")
	fmt.Println("  unlock --force <plan-id>      Break a stale lock")
	fmt.Println("  conflicts list                List unresolved conflicts")
	fmt.Println("  conflicts resolve <id> <local|server>")
	fmt.Println("                                Resolve a conflict")
	fmt.Println("  retry                         Re-enable failed queue operations")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mealsync login eyJhbGciOi...")
	fmt.Println("  mealsync dishes add 'Borscht' 'Classic beet soup'")
	fmt.Println("  mealsync plan create 2026-08-31")
	fmt.Println("  mealsync plan set b692f5c0 2026-09-01 dinner 13aa6e49")
	fmt.Println("  mealsync conflicts resolve b692f5c0 server")
	fmt.Println("  mealsync --offline dishes list")
}
