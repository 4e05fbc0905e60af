package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/document"
)

// --- Documents ---

const documentColumns = `id, tenant_name, collection_name, data, created_at, updated_at`

func scanDocument(row scannable) (document.Document, error) {
	var d document.Document
	var data []byte
	if err := row.Scan(&d.ID, &d.TenantName, &d.Collection, &data, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return d, err
	}
	d.Data = json.RawMessage(data)
	return d, nil
}

func scopeAttrs(scope document.Scope) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("tenant", scope.Tenant),
		attribute.String("collection", scope.Collection),
	}
}

func (s *Store) CreateDocument(ctx context.Context, scope document.Scope, data json.RawMessage) (*document.Document, error) {
	ctx, span := startSpan(ctx, "create_document", scopeAttrs(scope)...)
	defer span.End()

	d, err := scanDocument(s.pool.QueryRow(ctx,
		`INSERT INTO documents (tenant_name, collection_name, data)
		 VALUES ($1, $2, $3::jsonb)
		 RETURNING `+documentColumns,
		scope.Tenant, scope.Collection, string(data)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("create document in %s: %w", scope, domain.ErrCollectionNotFound)
		}
		if verr := dataError(err); verr != nil {
			return nil, fmt.Errorf("create document in %s: %w", scope, verr)
		}
		return nil, fmt.Errorf("create document in %s: %w", scope, err)
	}
	return &d, nil
}

func (s *Store) GetDocument(ctx context.Context, scope document.Scope, id int64) (*document.Document, error) {
	ctx, span := startSpan(ctx, "get_document", append(scopeAttrs(scope), attribute.Int64("document.id", id))...)
	defer span.End()

	d, err := scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE id = $1 AND tenant_name = $2 AND collection_name = $3`,
		id, scope.Tenant, scope.Collection))
	if err != nil {
		return nil, notFoundWrap(err, domain.ErrDocumentNotFound, "get document %d in %s", id, scope)
	}
	return &d, nil
}

// ListDocuments reads the total count and the requested page in one
// repeatable-read snapshot so both describe the same set of rows.
func (s *Store) ListDocuments(ctx context.Context, scope document.Scope, req document.PageRequest) (document.Page, error) {
	ctx, span := startSpan(ctx, "list_documents", append(scopeAttrs(scope),
		attribute.Int("limit", req.Limit), attribute.Int("offset", req.Offset))...)
	defer span.End()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return document.Page{}, fmt.Errorf("list documents in %s: begin tx: %w", scope, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE tenant_name = $1 AND collection_name = $2`,
		scope.Tenant, scope.Collection).Scan(&total); err != nil {
		return document.Page{}, fmt.Errorf("count documents in %s: %w", scope, err)
	}

	rows, err := tx.Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE tenant_name = $1 AND collection_name = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		scope.Tenant, scope.Collection, req.Limit, req.Offset)
	if err != nil {
		return document.Page{}, fmt.Errorf("list documents in %s: %w", scope, err)
	}
	defer rows.Close()

	var items []document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return document.Page{}, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return document.Page{}, fmt.Errorf("list documents in %s: %w", scope, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return document.Page{}, fmt.Errorf("list documents in %s: commit: %w", scope, err)
	}
	return document.NewPage(items, total, req), nil
}

// UpdateDocument replaces data entirely. updated_at always moves forward,
// even when two updates land within the clock's resolution.
func (s *Store) UpdateDocument(ctx context.Context, scope document.Scope, id int64, data json.RawMessage) (*document.Document, error) {
	ctx, span := startSpan(ctx, "update_document", append(scopeAttrs(scope), attribute.Int64("document.id", id))...)
	defer span.End()

	d, err := scanDocument(s.pool.QueryRow(ctx,
		`UPDATE documents
		 SET data = $4::jsonb,
		     updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		 WHERE id = $1 AND tenant_name = $2 AND collection_name = $3
		 RETURNING `+documentColumns,
		id, scope.Tenant, scope.Collection, string(data)))
	if err != nil {
		if verr := dataError(err); verr != nil {
			return nil, fmt.Errorf("update document %d in %s: %w", id, scope, verr)
		}
		return nil, notFoundWrap(err, domain.ErrDocumentNotFound, "update document %d in %s", id, scope)
	}
	return &d, nil
}

func (s *Store) DeleteDocument(ctx context.Context, scope document.Scope, id int64) error {
	ctx, span := startSpan(ctx, "delete_document", append(scopeAttrs(scope), attribute.Int64("document.id", id))...)
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND tenant_name = $2 AND collection_name = $3`,
		id, scope.Tenant, scope.Collection)
	return execExpectOne(tag, err, domain.ErrDocumentNotFound, "delete document %d in %s", id, scope)
}

func (s *Store) CountDocuments(ctx context.Context, scope document.Scope) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE tenant_name = $1 AND collection_name = $2`,
		scope.Tenant, scope.Collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents in %s: %w", scope, err)
	}
	return n, nil
}

func (s *Store) DeleteAllDocumentsForTenant(ctx context.Context, tenantName string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE tenant_name = $1`, tenantName)
	if err != nil {
		return 0, fmt.Errorf("delete documents for tenant %s: %w", tenantName, err)
	}
	return tag.RowsAffected(), nil
}
