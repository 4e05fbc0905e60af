package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
)

// --- Tenant registry ---

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	var icon *string
	if err := row.Scan(&t.Name, &icon, &t.CreatedAt); err != nil {
		return t, err
	}
	if icon != nil {
		t.Icon = *icon
	}
	return t, nil
}

func (s *Store) LookupTenant(ctx context.Context, name string) (*tenant.Tenant, error) {
	ctx, span := startSpan(ctx, "lookup_tenant", attribute.String("tenant", name))
	defer span.End()

	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT name, icon, created_at FROM tenants WHERE name = $1`, name))
	if err != nil {
		return nil, notFoundWrap(err, domain.ErrTenantNotFound, "lookup tenant %s", name)
	}
	return &t, nil
}

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	ctx, span := startSpan(ctx, "create_tenant", attribute.String("tenant", req.Name))
	defer span.End()

	var icon *string
	if req.Icon != "" {
		icon = &req.Icon
	}
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, icon) VALUES ($1, $2)
		 RETURNING name, icon, created_at`,
		req.Name, icon))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create tenant %s: %w", req.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("create tenant %s: %w", req.Name, err)
	}
	return &t, nil
}

// DeleteTenant removes the tenant with all of its collections and documents in
// one transaction.
func (s *Store) DeleteTenant(ctx context.Context, name string) (tenant.DeleteSummary, error) {
	ctx, span := startSpan(ctx, "delete_tenant", attribute.String("tenant", name))
	defer span.End()

	var sum tenant.DeleteSummary
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return sum, fmt.Errorf("delete tenant %s: begin tx: %w", name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the tenant row first so a concurrent collection auto-create
	// either completes before us or fails on the foreign key.
	var locked string
	err = tx.QueryRow(ctx, `SELECT name FROM tenants WHERE name = $1 FOR UPDATE`, name).Scan(&locked)
	if err != nil {
		return sum, notFoundWrap(err, domain.ErrTenantNotFound, "delete tenant %s", name)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE tenant_name = $1`, name)
	if err != nil {
		return sum, fmt.Errorf("delete tenant %s: documents: %w", name, err)
	}
	sum.Documents = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM collections WHERE tenant_name = $1`, name)
	if err != nil {
		return sum, fmt.Errorf("delete tenant %s: collections: %w", name, err)
	}
	sum.Collections = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM tenants WHERE name = $1`, name)
	if err := execExpectOne(tag, err, domain.ErrTenantNotFound, "delete tenant %s", name); err != nil {
		return sum, err
	}

	if err := tx.Commit(ctx); err != nil {
		return sum, fmt.Errorf("delete tenant %s: commit: %w", name, err)
	}
	return sum, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, icon, created_at FROM tenants ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return orEmpty(tenants), nil
}

// ListTenantSummaries returns every tenant, newest first, with live collection
// and document counts.
func (s *Store) ListTenantSummaries(ctx context.Context) ([]tenant.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.name, t.icon, t.created_at,
		        (SELECT COUNT(*) FROM collections c WHERE c.tenant_name = t.name),
		        (SELECT COUNT(*) FROM documents d WHERE d.tenant_name = t.name)
		 FROM tenants t
		 ORDER BY t.created_at DESC, t.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenant summaries: %w", err)
	}
	defer rows.Close()

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tenant.Summary, error) {
		var sum tenant.Summary
		var icon *string
		err := row.Scan(&sum.Name, &icon, &sum.CreatedAt, &sum.CollectionCount, &sum.DocumentCount)
		if icon != nil {
			sum.Icon = *icon
		}
		return sum, err
	})
	if err != nil {
		return nil, fmt.Errorf("list tenant summaries: %w", err)
	}
	return orEmpty(summaries), nil
}
