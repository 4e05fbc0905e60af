// Package tenant defines the tenant domain model for multi-tenancy.
//
// A tenant is an isolated namespace addressed by its subdomain-like name.
package tenant

import "time"

// Tenant represents an isolated tenant in the system.
type Tenant struct {
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest holds the fields submitted to provision a new tenant.
type CreateRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Summary is a tenant with aggregate counts for admin listings.
type Summary struct {
	Tenant
	CollectionCount int64 `json:"collection_count"`
	DocumentCount   int64 `json:"document_count"`
}

// DeleteSummary reports what a cascading tenant deletion removed.
type DeleteSummary struct {
	Collections int64 `json:"collections_deleted"`
	Documents   int64 `json:"documents_deleted"`
}
