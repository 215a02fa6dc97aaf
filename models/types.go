// ABOUTME: Data models shared by the API client, controllers and views
// ABOUTME: Defines Record, ListQuery, ListResult, LookupOption, PermissionGrant and session types
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one persisted business entity as exchanged with the backend.
// An absent or empty "id" marks a draft that has not been persisted yet.
type Record map[string]any

// IDField is the identifier key carried by every record.
const IDField = "id"

// ID returns the record identifier, or "" for a draft.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	return Scalar(r[IDField])
}

// HasID reports whether the record has been persisted.
func (r Record) HasID() bool {
	return r.ID() != ""
}

// WithID returns a copy of the record carrying the given id.
func (r Record) WithID(id string) Record {
	out := r.Clone()
	if id == "" {
		delete(out, IDField)
		return out
	}
	out[IDField] = id
	return out
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the field rendered as text ("" for nil).
func (r Record) String(field string) string {
	return Scalar(r[field])
}

// Scalar renders a JSON-decoded scalar as text. Nested objects are reduced
// to their id, which is how foreign keys are displayed.
func Scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case map[string]any:
		return Scalar(t[IDField])
	case Record:
		return Scalar(t[IDField])
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Direction is a per-column sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ListQuery holds the search, paging and sort parameters of a list fetch.
type ListQuery struct {
	Search      string      `json:"search"`
	Page        int         `json:"page"`
	RowsPerPage int         `json:"rowsPerPage"`
	ColumnOrder []Direction `json:"columnOrder"`
}

// DefaultRowsPerPage matches the page size the list screens start with.
const DefaultRowsPerPage = 100

// NewListQuery returns the initial query of a list screen.
func NewListQuery(rowsPerPage int) ListQuery {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	return ListQuery{RowsPerPage: rowsPerPage, ColumnOrder: []Direction{}}
}

// ListResult is one page of rows plus the total of the filtered set.
type ListResult[T any] struct {
	Rows  []T
	Total int
}

// LookupOption is the id+label projection used to populate select inputs.
type LookupOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PermissionGrant is one row of the profile x menu-option access matrix.
type PermissionGrant struct {
	MenuOptionKey string `json:"menuOptionKey"`
	PermitAll     bool   `json:"permitAll"`
	PermitCreate  bool   `json:"permitCreate"`
	PermitRestore bool   `json:"permitRestore"`
	PermitUpdate  bool   `json:"permitUpdate"`
	PermitDelete  bool   `json:"permitDelete"`
	Disabled      bool   `json:"disabled"`
}

// DecodeGrants converts a JSON-decoded grants array into typed grants.
// Anything unrecognizable decodes to nil.
func DecodeGrants(v any) []PermissionGrant {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var grants []PermissionGrant
	if err := json.Unmarshal(raw, &grants); err != nil {
		return nil
	}
	return grants
}

// MenuOption is one entry of the menu-option catalog returned by /menu-options/all.
type MenuOption struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Label      string `json:"label"`
	Route      string `json:"route"`
	ModuleName string `json:"moduleName"`
	Sequence   string `json:"sequence,omitempty"`
}

// MenuEntry is one module of the signed-in user's navigation menu.
type MenuEntry struct {
	ID             string      `json:"id"`
	Text           string      `json:"text"`
	Route          string      `json:"route"`
	SubMenuOptions []MenuEntry `json:"subMenuOptions,omitempty"`
}

// User is the signed-in identity.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Credentials are the sign-in inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
