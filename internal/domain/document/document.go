// Package document defines schema-less JSON documents owned by a tenant collection.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Strob0t/TenantForge/internal/domain"
)

// Scope addresses the tenant and collection a document operation runs under.
type Scope struct {
	Tenant     string `json:"tenant"`
	Collection string `json:"collection"`
}

func (s Scope) String() string {
	return s.Tenant + "/" + s.Collection
}

// Document is an opaque JSON object plus storage metadata.
// Data is kept as raw bytes and is never interpreted by the store.
type Document struct {
	ID         int64
	TenantName string
	Collection string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MessageInvalidText is returned for objects whose text cannot be stored:
// invalid UTF-8 or a NUL character in any key or string value.
const MessageInvalidText = "Request body must be valid UTF-8 without NUL characters"

// ValidateData accepts only a syntactically valid JSON object at the top level.
// Arrays, scalars and null are rejected, as is text jsonb cannot hold.
func ValidateData(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return domain.Validationf("data", "Request body must be a valid JSON object")
	}
	if !utf8.Valid(trimmed) || containsNUL(trimmed) {
		return domain.Validationf("data", MessageInvalidText)
	}
	return nil
}

// containsNUL reports whether any decoded key or string value holds U+0000.
// data must already be valid JSON.
func containsNUL(data []byte) bool {
	if !bytes.Contains(data, []byte(`\u0000`)) {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if s, ok := tok.(string); ok && strings.IndexByte(s, 0) >= 0 {
			return true
		}
	}
}

// ParseID parses a path-supplied document id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.Validationf("id", "Invalid document ID")
	}
	return id, nil
}

type meta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarshalJSON renders the API shape: {"id": N, ...data fields, "_meta": {...}}.
// Keys named "id" or "_meta" inside Data are dropped so the system fields stay authoritative.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatInt(d.ID, 10))

	if len(bytes.TrimSpace(d.Data)) > 0 {
		if err := writeMembers(&buf, d.Data); err != nil {
			return nil, fmt.Errorf("document %d: %w", d.ID, err)
		}
	}

	m, err := json.Marshal(meta{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt})
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"_meta":`)
	buf.Write(m)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeMembers copies the members of the JSON object in data to buf, keeping their order.
func writeMembers(buf *bytes.Buffer, data json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("data is not a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if key == "id" || key == "_meta" {
			continue
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
	}
	return nil
}
