// Package objects defines the host object store that integration instances,
// their installed assets and uploaded templates are persisted in.
//
// Backends live under internal/store. Every backend reports a missing
// object as *errors.NotFoundError and any other failure as
// *errors.StoreError, so callers can tell "does not exist" apart from
// "could not ask".
package objects

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/agentstation/utc"

	"github.com/agentstation/integrations/pkg/constants"
)

// Reference links an object to another object by type and id.
type Reference struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// Object is one stored record.
type Object struct {
	Type       string          `json:"type" yaml:"type"`
	ID         string          `json:"id" yaml:"id"`
	Attributes json.RawMessage `json:"attributes" yaml:"attributes"`
	References []Reference     `json:"references,omitempty" yaml:"references,omitempty"`
	UpdatedAt  utc.Time        `json:"updated_at" yaml:"updated_at"`
}

// Attribute decodes the named top-level attribute into dst. It reports
// false when the attribute is absent or cannot be decoded into dst.
func (o Object) Attribute(name string, dst any) bool {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(o.Attributes, &attrs); err != nil {
		return false
	}
	raw, ok := attrs[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// FindOptions filters a Find call.
type FindOptions struct {
	Type string
	// Search matches objects whose attribute named by any of SearchFields
	// equals Search. An empty Search matches everything.
	Search       string
	SearchFields []string
	PerPage      int
	Page         int
}

// FindResult is one page of matching objects.
type FindResult struct {
	Objects []Object `json:"saved_objects"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

// CreateOptions controls Create and BulkCreate.
type CreateOptions struct {
	// Overwrite replaces an existing object with the same type and id
	// instead of failing with a conflict.
	Overwrite bool
}

// Store persists objects.
type Store interface {
	Find(ctx context.Context, opts FindOptions) (*FindResult, error)
	Get(ctx context.Context, typ, id string) (*Object, error)
	Create(ctx context.Context, obj Object, opts CreateOptions) (*Object, error)
	// BulkCreate stores every object or none of them.
	BulkCreate(ctx context.Context, objs []Object, opts CreateOptions) ([]Object, error)
	Delete(ctx context.Context, typ, id string) error
}

// ClosableStore is a Store holding resources that must be released.
type ClosableStore interface {
	Store
	Close() error
}

// Matches reports whether obj satisfies the search part of opts.
func Matches(obj Object, opts FindOptions) bool {
	if opts.Type != "" && obj.Type != opts.Type {
		return false
	}
	if opts.Search == "" {
		return true
	}
	for _, field := range opts.SearchFields {
		var v string
		if obj.Attribute(field, &v) && v == opts.Search {
			return true
		}
	}
	return false
}

// Page filters objs with opts and slices out the requested page. Objects
// keep their input order.
func Page(objs []Object, opts FindOptions) *FindResult {
	matched := make([]Object, 0, len(objs))
	for _, obj := range objs {
		if Matches(obj, opts) {
			matched = append(matched, obj)
		}
	}

	perPage := opts.PerPage
	switch {
	case perPage <= 0:
		perPage = constants.DefaultPageSize
	case perPage > constants.MaxPageSize:
		perPage = constants.MaxPageSize
	}
	page := max(opts.Page, 1)

	start := min((page-1)*perPage, len(matched))
	end := min(start+perPage, len(matched))
	return &FindResult{
		Objects: slices.Clip(matched[start:end]),
		Total:   len(matched),
		Page:    page,
		PerPage: perPage,
	}
}
