package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
	"github.com/sakif/game-list/internal/validation"
)

// =========================================================================
// REGISTRY
// =========================================================================

// ColumnKind says how a column's JSON value is checked and stored.
type ColumnKind string

const (
	KindString    ColumnKind = "string"    // short non-empty text when required
	KindText      ColumnKind = "text"      // free text, may be empty
	KindInt       ColumnKind = "int"       // integral number
	KindDate      ColumnKind = "date"      // "YYYY-MM-DD"
	KindBool      ColumnKind = "bool"      // true / false
	KindRef       ColumnKind = "ref"       // id of a row in Ref, or null
	KindTimestamp ColumnKind = "timestamp" // set by the store; always read-only
)

// Column describes one editable or displayed column. The id column is
// implicit on every resource and never listed here.
type Column struct {
	Name     string     `json:"name"`
	Kind     ColumnKind `json:"kind"`
	Ref      string     `json:"ref,omitempty"`
	Required bool       `json:"required,omitempty"`
	ReadOnly bool       `json:"readOnly,omitempty"`
	// Rules is a validate tag applied to string values on write, for
	// example "min=4,max=25".
	Rules string `json:"rules,omitempty"`
	// Hidden columns are never read or written through the console.
	Hidden bool `json:"-"`
}

// Resource is one table exposed by the admin console.
type Resource struct {
	Name      string          `json:"name"`
	Table     string          `json:"-"`
	Columns   []Column        `json:"columns"`
	CanCreate bool            `json:"canCreate"`
	TagKinds  []model.TagKind `json:"tagKinds,omitempty"`
}

func (r *Resource) column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// visibleColumns is the projection used for reads: id first, then every
// column that is not hidden.
func (r *Resource) visibleColumns() []string {
	cols := []string{"id"}
	for _, c := range r.Columns {
		if !c.Hidden {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// MarshalJSON leaves hidden columns out of the resource description.
func (r Resource) MarshalJSON() ([]byte, error) {
	type plain Resource
	visible := make([]Column, 0, len(r.Columns))
	for _, c := range r.Columns {
		if !c.Hidden {
			visible = append(visible, c)
		}
	}
	r.Columns = visible
	return json.Marshal(plain(r))
}

// Registry is the fixed set of resources the admin console serves. It is
// built once at start-up and only read afterwards.
type Registry struct {
	order  []string
	byName map[string]*Resource
}

// NewRegistry checks and indexes resources. Names must be unique and refs
// must point at a registered table.
func NewRegistry(resources ...Resource) (*Registry, error) {
	reg := &Registry{byName: make(map[string]*Resource, len(resources))}
	tables := make(map[string]bool, len(resources))

	for i := range resources {
		res := resources[i]
		if res.Name == "" || res.Table == "" {
			return nil, fmt.Errorf("admin: resource %d needs a name and a table", i)
		}
		if _, dup := reg.byName[res.Name]; dup {
			return nil, fmt.Errorf("admin: resource %q registered twice", res.Name)
		}
		for _, c := range res.Columns {
			if c.Name == "id" {
				return nil, fmt.Errorf("admin: resource %q lists the implicit id column", res.Name)
			}
			if c.Kind == KindTimestamp && !c.ReadOnly {
				return nil, fmt.Errorf("admin: %s.%s: timestamp columns must be read-only", res.Name, c.Name)
			}
		}
		reg.byName[res.Name] = &res
		reg.order = append(reg.order, res.Name)
		tables[res.Table] = true
	}

	for _, res := range reg.byName {
		for _, c := range res.Columns {
			if c.Kind == KindRef && !tables[c.Ref] {
				return nil, fmt.Errorf("admin: %s.%s references unregistered table %q", res.Name, c.Name, c.Ref)
			}
		}
	}
	return reg, nil
}

// DefaultRegistry exposes the catalog tables and the user accounts.
// Accounts are created only by signing up, and their password hash never
// leaves the store through the console.
func DefaultRegistry() *Registry {
	named := func(name string) Resource {
		return Resource{
			Name:      name,
			Table:     name,
			Columns:   []Column{{Name: "name", Kind: KindString, Required: true}},
			CanCreate: true,
		}
	}

	reg, err := NewRegistry(
		Resource{
			Name:  "games",
			Table: "games",
			Columns: []Column{
				{Name: "title", Kind: KindString, Required: true},
				{Name: "description", Kind: KindText},
				{Name: "release_date", Kind: KindDate, Required: true},
				{Name: "developer_id", Kind: KindRef, Ref: "developers"},
				{Name: "publisher_id", Kind: KindRef, Ref: "publishers"},
			},
			CanCreate: true,
			TagKinds:  model.TagKinds,
		},
		named("developers"),
		named("publishers"),
		named("genres"),
		named("models"),
		named("platforms"),
		Resource{
			Name:  "users",
			Table: "users",
			Columns: []Column{
				{Name: "email", Kind: KindString, Required: true, Rules: "min=6,max=35,email"},
				{Name: "username", Kind: KindString, Required: true, Rules: "min=4,max=25"},
				{Name: "password", Kind: KindString, Hidden: true},
				{Name: "is_admin", Kind: KindBool},
				{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
			},
		},
	)
	if err != nil {
		panic(err) // the table above is static
	}
	return reg
}

// Resources returns every registered resource in registration order.
func (r *Registry) Resources() []Resource {
	out := make([]Resource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.byName[name])
	}
	return out
}

// Lookup returns the named resource or apperror.ErrNotFound.
func (r *Registry) Lookup(name string) (*Resource, error) {
	res, ok := r.byName[name]
	if !ok {
		return nil, apperror.NotFound("resource", name)
	}
	return res, nil
}

// =========================================================================
// SERVICE
// =========================================================================

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AdminService is generic CRUD over the registry's tables.
type AdminService struct {
	registry  *Registry
	records   repository.RecordRepository
	validator *validation.Validator
	logger    *slog.Logger
}

func NewAdminService(registry *Registry, records repository.RecordRepository, validator *validation.Validator, logger *slog.Logger) *AdminService {
	return &AdminService{registry: registry, records: records, validator: validator, logger: logger}
}

// Registry exposes the resource descriptions.
func (s *AdminService) Registry() *Registry {
	return s.registry
}

// List returns one page of rows. A limit of 0 selects DefaultPageSize and
// limits above MaxPageSize are clamped.
func (s *AdminService) List(ctx context.Context, resource string, limit, offset int) ([]repository.Record, error) {
	res, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := s.records.ListRecords(ctx, res.Table, res.visibleColumns(), repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		normalize(res, rec)
	}
	return recs, nil
}

// Get returns one row.
func (s *AdminService) Get(ctx context.Context, resource string, id int64) (repository.Record, error) {
	res, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, res, id)
}

// fetch reads one row back in its JSON shape.
func (s *AdminService) fetch(ctx context.Context, res *Resource, id int64) (repository.Record, error) {
	rec, err := s.records.GetRecord(ctx, res.Table, res.visibleColumns(), id)
	if err != nil {
		return nil, err
	}
	normalize(res, rec)
	return rec, nil
}

// Create inserts a row from a decoded JSON object and returns it as stored.
func (s *AdminService) Create(ctx context.Context, resource string, values map[string]any) (repository.Record, error) {
	res, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	if !res.CanCreate {
		return nil, apperror.Forbidden(fmt.Sprintf("%s cannot be created from the admin console", res.Name))
	}

	row, err := s.coerceRecord(res, values, true)
	if err != nil {
		return nil, err
	}

	id, err := s.records.InsertRecord(ctx, res.Table, row)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin record created", slog.String("resource", res.Name), slog.Int64("id", id))

	return s.fetch(ctx, res, id)
}

// Update applies a partial update: only the keys present in values change.
func (s *AdminService) Update(ctx context.Context, resource string, id int64, values map[string]any) (repository.Record, error) {
	res, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}

	row, err := s.coerceRecord(res, values, false)
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, apperror.ValidationFailed("", "no columns to update")
	}

	if err := s.records.UpdateRecord(ctx, res.Table, id, row); err != nil {
		return nil, err
	}
	s.logger.Info("admin record updated", slog.String("resource", res.Name), slog.Int64("id", id))

	return s.fetch(ctx, res, id)
}

// Delete removes one row.
func (s *AdminService) Delete(ctx context.Context, resource string, id int64) error {
	res, err := s.registry.Lookup(resource)
	if err != nil {
		return err
	}
	if err := s.records.DeleteRecord(ctx, res.Table, id); err != nil {
		return err
	}
	s.logger.Info("admin record deleted", slog.String("resource", res.Name), slog.Int64("id", id))
	return nil
}

// SetGameTags replaces the tag set of one kind on a game.
func (s *AdminService) SetGameTags(ctx context.Context, gameID int64, kind string, tagIDs []int64) error {
	k := model.TagKind(kind)
	if !k.Valid() {
		return apperror.NotFound("tag kind", kind)
	}
	if tagIDs == nil {
		tagIDs = []int64{}
	}
	if err := s.records.SetGameTags(ctx, gameID, k, tagIDs); err != nil {
		return err
	}
	s.logger.Info("game tags replaced",
		slog.Int64("gameID", gameID),
		slog.String("kind", kind),
		slog.Int("count", len(tagIDs)),
	)
	return nil
}

// =========================================================================
// VALUE CHECKING
// =========================================================================

// coerceRecord checks every key of values against the resource's columns
// and converts the JSON values to what the store expects. On create, every
// required column must be present.
func (s *AdminService) coerceRecord(res *Resource, values map[string]any, create bool) (repository.Record, error) {
	fields := map[string]string{}
	row := repository.Record{}

	for name, raw := range values {
		col, ok := res.column(name)
		switch {
		case !ok || col.Hidden:
			fields[name] = "unknown column"
			continue
		case col.ReadOnly:
			fields[name] = "column is read-only"
			continue
		}

		v, err := coerceValue(col, raw)
		if err == nil && col.Rules != "" {
			err = s.validator.Var(v, col.Rules)
		}
		if err != nil {
			fields[name] = err.Error()
			continue
		}
		row[name] = v
	}

	if create {
		for _, col := range res.Columns {
			if _, ok := values[col.Name]; col.Required && !ok {
				fields[col.Name] = "is required"
			}
		}
	}

	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}
	return row, nil
}

func coerceValue(col Column, raw any) (any, error) {
	if raw == nil {
		if col.Required {
			return nil, errors.New("is required")
		}
		if col.Kind == KindString || col.Kind == KindText {
			return "", nil
		}
		return nil, nil
	}

	switch col.Kind {
	case KindString, KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("must be a string")
		}
		if col.Required && strings.TrimSpace(s) == "" {
			return nil, errors.New("is required")
		}
		return s, nil

	case KindInt, KindRef:
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		if col.Kind == KindRef && n <= 0 {
			return nil, errors.New("must be a positive id")
		}
		return n, nil

	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("must be a date string")
		}
		d, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return nil, errors.New("must be a date in YYYY-MM-DD form")
		}
		return d.Format(model.DateLayout), nil

	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, errors.New("must be true or false")
		}
		return b, nil
	}

	return nil, errors.New("cannot be written")
}

// normalize rewrites stored values into the JSON shape of their column.
// SQLite keeps booleans as 0 and 1.
func normalize(res *Resource, rec repository.Record) {
	for _, col := range res.Columns {
		if col.Kind != KindBool {
			continue
		}
		if raw, ok := rec[col.Name]; ok && raw != nil {
			if n, err := toInt64(raw); err == nil {
				rec[col.Name] = n != 0
			}
		}
	}
}

// toInt64 accepts the number shapes encoding/json produces: float64 by
// default, json.Number when the decoder uses UseNumber.
func toInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case json.Number:
		v, err := n.Int64()
		if err != nil {
			return 0, errors.New("must be an integer")
		}
		return v, nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, errors.New("must be an integer")
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, errors.New("must be an integer")
}
