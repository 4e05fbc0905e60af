package document

import (
	"strconv"

	"github.com/Strob0t/TenantForge/internal/domain"
)

// Pagination bounds. Out-of-range values are rejected, never clamped.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// PageRequest selects a window of documents ordered newest first.
type PageRequest struct {
	Limit  int
	Offset int
}

// Validate checks limit in [1, MaxLimit] and offset >= 0.
func (p PageRequest) Validate() error {
	if p.Limit < 1 || p.Limit > MaxLimit {
		return domain.Validationf("limit", "Limit must be between 1 and %d", MaxLimit)
	}
	if p.Offset < 0 {
		return domain.Validationf("offset", "Offset must be non-negative")
	}
	return nil
}

// ParsePageRequest parses query string values; empty values fall back to defaults.
func ParsePageRequest(limit, offset string) (PageRequest, error) {
	p := PageRequest{Limit: DefaultLimit}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return p, domain.Validationf("limit", "Limit must be between 1 and %d", MaxLimit)
		}
		p.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			return p, domain.Validationf("offset", "Offset must be non-negative")
		}
		p.Offset = n
	}
	return p, p.Validate()
}

// Page is one window of a scope's documents.
type Page struct {
	Items   []Document
	Total   int64
	Limit   int
	Offset  int
	HasMore bool
}

// NewPage computes HasMore as offset+limit < total.
func NewPage(items []Document, total int64, req PageRequest) Page {
	if items == nil {
		items = []Document{}
	}
	return Page{
		Items:   items,
		Total:   total,
		Limit:   req.Limit,
		Offset:  req.Offset,
		HasMore: int64(req.Offset)+int64(req.Limit) < total,
	}
}
