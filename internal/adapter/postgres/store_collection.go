package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/collection"
)

// --- Collection registry ---

const collectionColumns = `id, tenant_name, name, created_at`

func scanCollection(row scannable) (collection.Collection, error) {
	var c collection.Collection
	err := row.Scan(&c.ID, &c.TenantName, &c.Name, &c.CreatedAt)
	return c, err
}

func (s *Store) LookupCollection(ctx context.Context, tenantName, name string) (*collection.Collection, error) {
	ctx, span := startSpan(ctx, "lookup_collection",
		attribute.String("tenant", tenantName), attribute.String("collection", name))
	defer span.End()

	c, err := scanCollection(s.pool.QueryRow(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE tenant_name = $1 AND name = $2`,
		tenantName, name))
	if err != nil {
		return nil, notFoundWrap(err, domain.ErrCollectionNotFound, "lookup collection %s/%s", tenantName, name)
	}
	return &c, nil
}

// CreateCollection inserts the collection or, when a concurrent request won
// the race, returns the existing row with created=false.
func (s *Store) CreateCollection(ctx context.Context, tenantName, name string) (*collection.Collection, bool, error) {
	ctx, span := startSpan(ctx, "create_collection",
		attribute.String("tenant", tenantName), attribute.String("collection", name))
	defer span.End()

	c, err := scanCollection(s.pool.QueryRow(ctx,
		`INSERT INTO collections (tenant_name, name) VALUES ($1, $2)
		 ON CONFLICT (tenant_name, name) DO NOTHING
		 RETURNING `+collectionColumns,
		tenantName, name))
	switch {
	case err == nil:
		return &c, true, nil
	case isForeignKeyViolation(err):
		return nil, false, fmt.Errorf("create collection %s/%s: %w", tenantName, name, domain.ErrTenantNotFound)
	case isCheckViolation(err) && collection.ValidateName(name) != nil:
		return nil, false, fmt.Errorf("create collection %s/%s: %w", tenantName, name, collection.ValidateName(name))
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, false, fmt.Errorf("create collection %s/%s: %w", tenantName, name, err)
	}

	existing, err := s.LookupCollection(ctx, tenantName, name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ListCollectionsWithCounts returns the tenant's collections, oldest first,
// each with its current document count.
func (s *Store) ListCollectionsWithCounts(ctx context.Context, tenantName string) ([]collection.WithCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.tenant_name, c.name, c.created_at, COUNT(d.id)
		 FROM collections c
		 LEFT JOIN documents d ON d.tenant_name = c.tenant_name AND d.collection_name = c.name
		 WHERE c.tenant_name = $1
		 GROUP BY c.id
		 ORDER BY c.created_at ASC, c.id ASC`, tenantName)
	if err != nil {
		return nil, fmt.Errorf("list collections %s: %w", tenantName, err)
	}
	defer rows.Close()

	var out []collection.WithCount
	for rows.Next() {
		var wc collection.WithCount
		if err := rows.Scan(&wc.ID, &wc.TenantName, &wc.Name, &wc.CreatedAt, &wc.DocumentCount); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collections %s: %w", tenantName, err)
	}
	return orEmpty(out), nil
}

// DeleteCollection removes the collection and its documents in one
// transaction and returns the number of documents removed.
func (s *Store) DeleteCollection(ctx context.Context, tenantName, name string) (int64, error) {
	ctx, span := startSpan(ctx, "delete_collection",
		attribute.String("tenant", tenantName), attribute.String("collection", name))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete collection %s/%s: begin tx: %w", tenantName, name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE tenant_name = $1 AND collection_name = $2`, tenantName, name)
	if err != nil {
		return 0, fmt.Errorf("delete collection %s/%s: documents: %w", tenantName, name, err)
	}
	removed := tag.RowsAffected()

	tag, err = tx.Exec(ctx,
		`DELETE FROM collections WHERE tenant_name = $1 AND name = $2`, tenantName, name)
	if err := execExpectOne(tag, err, domain.ErrCollectionNotFound, "delete collection %s/%s", tenantName, name); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("delete collection %s/%s: commit: %w", tenantName, name, err)
	}
	return removed, nil
}
