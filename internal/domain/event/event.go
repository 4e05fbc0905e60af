// Package event defines the change events published after tenant, collection
// and document mutations.
package event

import "time"

// Type identifies the kind of change event.
type Type string

const (
	TypeTenantCreated     Type = "tenant.created"
	TypeTenantDeleted     Type = "tenant.deleted"
	TypeCollectionCreated Type = "collection.created"
	TypeCollectionDeleted Type = "collection.deleted"
	TypeDocumentCreated   Type = "document.created"
	TypeDocumentUpdated   Type = "document.updated"
	TypeDocumentDeleted   Type = "document.deleted"
)

// SubjectPrefix prefixes every event subject on the message bus.
const SubjectPrefix = "tenantforge."

// Subject returns the message bus subject for events of type t.
func (t Type) Subject() string {
	return SubjectPrefix + string(t)
}

// Event is a single immutable change notification.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Tenant     string    `json:"tenant"`
	Collection string    `json:"collection,omitempty"`
	DocumentID int64     `json:"document_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	At         time.Time `json:"at"`
}
