package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	cfnats "github.com/Strob0t/TenantForge/internal/adapter/nats"
	"github.com/Strob0t/TenantForge/internal/adapter/postgres"
	"github.com/Strob0t/TenantForge/internal/config"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
	"github.com/Strob0t/TenantForge/internal/logger"
	"github.com/Strob0t/TenantForge/internal/resilience"
	"github.com/Strob0t/TenantForge/internal/service"
)

// runAdmin dispatches admin subcommands (create-tenant, delete-tenant, list-tenants).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "delete-tenant":
		return runAdminDeleteTenant(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: tenantforge admin <command> [options]

Commands:
  create-tenant    Provision a new tenant
  delete-tenant    Delete a tenant with all its collections and documents
  list-tenants     List all tenants with collection and document counts
  help             Show this help message

Examples:
  tenantforge admin create-tenant --name acme --icon 🚀
  tenantforge admin delete-tenant --name acme
  tenantforge admin delete-tenant --name acme --yes
  tenantforge admin list-tenants
`)
}

type adminDeps struct {
	tenants   *service.TenantService
	provision *service.ProvisionService
	// broadcast is false when no queue is configured; running replicas then
	// keep serving a deleted tenant from cache until tenantTTL expires.
	broadcast bool
	tenantTTL time.Duration
}

// loadAdminDeps connects to Postgres and, when configured, NATS so that a
// deletion evicts the tenant from every running replica's cache.
func loadAdminDeps(ctx context.Context) (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		logCloser.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	tenants := service.NewTenantService(store, nil, 0)
	provision := service.NewProvisionService(store, tenants, cfg.Server)

	cleanup := func() {
		pool.Close()
		logCloser.Close()
	}

	if cfg.NATS.URL != "" {
		q, err := cfnats.Connect(ctx, cfg.NATS)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to nats: %w", err)
		}
		provision.SetEvents(service.NewEventPublisher(q, resilience.NewBreaker("events", cfg.Breaker)))
		dbCleanup := cleanup
		cleanup = func() {
			_ = q.Close()
			dbCleanup()
		}
	}

	return &adminDeps{
		tenants:   tenants,
		provision: provision,
		broadcast: cfg.NATS.URL != "",
		tenantTTL: cfg.Cache.TenantTTL,
	}, cleanup, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant name (required)")
	icon := fs.String("icon", "", "display icon, up to 10 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := deps.provision.ProvisionTenant(ctx, tenant.CreateRequest{Name: *name, Icon: *icon})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	if res.Outcome == service.OutcomeRejected {
		return fmt.Errorf("tenant rejected: %s", res.Reason)
	}

	fmt.Fprintf(os.Stderr, "Tenant %s created: %s\n", res.Tenant.Name, res.RedirectURL)
	return nil
}

func runAdminDeleteTenant(args []string) error {
	fs := flag.NewFlagSet("delete-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant name (required)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	if !*yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
			return fmt.Errorf("refusing to delete without --yes when stdin is not a terminal")
		}
		ok, err := confirm(os.Stdin, os.Stderr, *name)
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !ok {
			return fmt.Errorf("aborted")
		}
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := deps.provision.DeleteTenant(ctx, *name)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if res.Outcome == service.DeleteNotFound {
		return fmt.Errorf("tenant %s not found", *name)
	}

	fmt.Fprintf(os.Stderr, "Tenant %s deleted (%d collections, %d documents)\n",
		*name, res.Summary.Collections, res.Summary.Documents)
	if !deps.broadcast {
		warnStaleCache(os.Stderr, *name, deps.tenantTTL)
	}
	return nil
}

// warnStaleCache tells the operator that replicas were not notified of the
// deletion and may resolve the tenant until their cache entry expires.
func warnStaleCache(out io.Writer, name string, ttl time.Duration) {
	fmt.Fprintf(out, "Warning: NATS_URL is not set, so running servers were not notified.\n"+
		"They may keep serving tenant %s from cache for up to %s.\n", name, ttl)
}

// confirm asks the operator to type the tenant name back.
func confirm(in io.Reader, out io.Writer, name string) (bool, error) {
	fmt.Fprintf(out, "This permanently deletes tenant %q and all of its data.\nType the tenant name to confirm: ", name)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.TrimSpace(line) == name, nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sums, err := deps.tenants.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(sums) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tICON\tCOLLECTIONS\tDOCUMENTS\tCREATED")
	for i := range sums {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			sums[i].Name, sums[i].Icon, sums[i].CollectionCount, sums[i].DocumentCount,
			sums[i].CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
