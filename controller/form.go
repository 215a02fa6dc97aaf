// ABOUTME: Generic create/edit form controller for one catalog resource
// ABOUTME: Loads lookups and the record, tracks field errors, and submits as create or update
package controller

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/models"
)

// Status is the lifecycle state of a form.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoaded
	StatusDirty
	StatusSubmitting
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoaded:
		return "loaded"
	case StatusDirty:
		return "dirty"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FormSource is the backend a form reads and writes.
type FormSource interface {
	Get(ctx context.Context, id string) (models.Record, error)
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, rec models.Record) (models.Record, error)
	Lookup(ctx context.Context, f models.Field) ([]models.LookupOption, error)
}

// MenuOptionSource supplies the menu options a permission matrix edits.
type MenuOptionSource interface {
	MenuOptions(ctx context.Context) ([]models.MenuOption, error)
}

// Navigator moves the app to another route.
type Navigator interface {
	Push(path string)
}

// FormState is a snapshot of a form.
type FormState struct {
	ID      string
	Values  models.Record
	Status  Status
	Errors  ValidationErrors
	Message string
	Lookups map[string][]models.LookupOption
}

// Form drives one create/edit screen.
type Form struct {
	res    *models.Resource
	src    FormSource
	nav    Navigator
	schema *Schema
	logger *zap.Logger
	matrix *PermissionMatrix

	mu         sync.Mutex
	id         string
	values     models.Record
	status     Status
	errors     ValidationErrors
	message    string
	lookups    map[string][]models.LookupOption
	focusFirst bool
}

// NewForm creates a form for res holding the resource defaults.
func NewForm(res *models.Resource, src FormSource, nav Navigator, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Form{
		res:     res,
		src:     src,
		nav:     nav,
		schema:  SchemaFor(res),
		logger:  logger.With(zap.String("resource", res.Name)),
		values:  models.Defaults(res),
		errors:  ValidationErrors{},
		lookups: map[string][]models.LookupOption{},
	}
	if res.HasGrants() {
		f.matrix = NewPermissionMatrix()
	}
	return f
}

// Resource returns the catalog entry the form edits.
func (f *Form) Resource() *models.Resource { return f.res }

// Matrix returns the permission matrix, or nil when the resource has none.
func (f *Form) Matrix() *PermissionMatrix { return f.matrix }

// State returns a snapshot.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(ValidationErrors, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	lookups := make(map[string][]models.LookupOption, len(f.lookups))
	for k, v := range f.lookups {
		lookups[k] = v
	}
	return FormState{
		ID:      f.id,
		Values:  f.values.Clone(),
		Status:  f.status,
		Errors:  errs,
		Message: f.message,
		Lookups: lookups,
	}
}

// LoadLookups fetches every select list the form needs, concurrently.
// A failed lookup is logged and leaves its list empty.
func (f *Form) LoadLookups(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	for _, field := range f.res.ForeignKeys() {
		g.Go(func() error {
			opts, err := f.src.Lookup(gctx, field)
			if err != nil {
				f.logger.Warn("lookup failed", zap.String("field", field.Name), zap.Error(err))
				opts = nil
			}
			f.mu.Lock()
			f.lookups[field.Name] = opts
			f.mu.Unlock()
			return nil
		})
	}

	if ms, ok := f.src.(MenuOptionSource); ok && f.matrix != nil {
		g.Go(func() error {
			options, err := ms.MenuOptions(gctx)
			if err != nil {
				f.logger.Warn("menu options fetch failed", zap.Error(err))
				return nil
			}
			f.matrix.SetOptions(options)
			return nil
		})
	}

	_ = g.Wait()
}

// LoadRecord fetches the record to edit. Nested foreign keys are
// flattened to ids. Without an id the form stays a draft.
func (f *Form) LoadRecord(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	rec, err := f.src.Get(ctx, id)
	if err != nil {
		f.logger.Warn("record fetch failed", zap.String("id", id), zap.Error(err))
		return err
	}

	values := models.Flatten(f.res, rec)
	if f.matrix != nil {
		f.matrix.Load(models.DecodeGrants(rec[grantsField(f.res)]))
	}

	f.mu.Lock()
	f.id = id
	f.values = values
	f.status = StatusLoaded
	f.errors = ValidationErrors{}
	f.message = ""
	f.mu.Unlock()
	return nil
}

// Set stores a field value, marks the form dirty, clears the top-level
// error and revalidates that field.
func (f *Form) Set(field string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[field] = value
	if f.status != StatusSubmitting {
		f.status = StatusDirty
	}
	f.message = ""
	if msg := f.schema.ValidateField(f.values, field); msg != "" {
		f.errors[field] = msg
	} else {
		delete(f.errors, field)
	}
}

// Validate checks every field and records the errors.
func (f *Form) Validate() ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := f.schema.Validate(f.values)
	f.errors = ValidationErrors{}
	for k, v := range errs {
		f.errors[k] = v
	}
	return errs
}

// Submit validates and then updates (known id) or creates. Validation
// errors block the request. On a backend error the form stays dirty with
// its values and one message. A create leaves an empty form behind.
func (f *Form) Submit(ctx context.Context) error {
	if errs := f.Validate(); errs != nil {
		return errs
	}

	f.mu.Lock()
	if f.status == StatusSubmitting {
		f.mu.Unlock()
		return fmt.Errorf("%s: submit already in progress", f.res.Name)
	}
	f.status = StatusSubmitting
	id := f.id
	payload := models.Payload(f.res, f.values, id)
	f.mu.Unlock()

	if f.matrix != nil {
		payload[grantsField(f.res)] = f.matrix.Grants()
	}

	var err error
	if id != "" {
		_, err = f.src.Update(ctx, payload)
	} else {
		_, err = f.src.Create(ctx, payload)
	}

	if err != nil {
		msg, recognized := api.DisplayMessage(err)
		if !recognized {
			f.logger.Error("submit failed with unrecognized error", zap.Error(err))
		} else {
			f.logger.Warn("submit rejected", zap.String("message", msg))
		}
		f.mu.Lock()
		f.status = StatusDirty
		f.message = msg
		f.mu.Unlock()
		return err
	}

	if id != "" {
		f.mu.Lock()
		f.status = StatusSucceeded
		f.mu.Unlock()
		f.nav.Push(f.res.Route)
		return nil
	}

	f.mu.Lock()
	f.status = StatusEmpty
	f.values = models.Defaults(f.res)
	f.errors = ValidationErrors{}
	f.focusFirst = true
	f.mu.Unlock()
	if f.matrix != nil {
		f.matrix.Reset()
	}
	f.nav.Push(f.res.NewRoute())
	return nil
}

// ConsumeFocusFirst reports, once, that the first input should take focus
// after a create.
func (f *Form) ConsumeFocusFirst() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.focusFirst
	f.focusFirst = false
	return v
}

func grantsField(res *models.Resource) string {
	for _, fld := range res.Fields {
		if fld.Kind == models.KindGrants {
			return fld.Name
		}
	}
	return ""
}
