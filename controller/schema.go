// ABOUTME: Declarative form validation built on go-playground/validator tags
// ABOUTME: Validates single fields or whole records, plus cross-field equality rules
package controller

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/harperreed/bolha/models"
)

// ErrValidation is wrapped by ValidationErrors.
var ErrValidation = errors.New("validation failed")

// ValidationErrors maps field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+v[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }

// Rule validates one field with validator tags.
type Rule struct {
	Field string
	Tags  string
}

// CrossRule compares a field against another, e.g. eqfield for a
// password confirmation.
type CrossRule struct {
	Field   string
	Other   string
	Tags    string
	Message string
}

// Schema holds the rules of one form.
type Schema struct {
	v     *validator.Validate
	rules []Rule
	cross []CrossRule
}

// NewSchema builds a schema from explicit rules.
func NewSchema(rules []Rule, cross ...CrossRule) *Schema {
	return &Schema{
		v:     validator.New(validator.WithRequiredStructEnabled()),
		rules: rules,
		cross: cross,
	}
}

// SchemaFor derives the schema of a catalog resource from its field rules.
func SchemaFor(res *models.Resource) *Schema {
	var rules []Rule
	for _, f := range res.Fields {
		tags := f.Rules
		if f.MaxLen > 0 && f.Kind != models.KindForeignKey {
			if tags == "" {
				tags = fmt.Sprintf("omitempty,max=%d", f.MaxLen)
			} else {
				tags = fmt.Sprintf("%s,max=%d", tags, f.MaxLen)
			}
		}
		if tags != "" {
			rules = append(rules, Rule{Field: f.Name, Tags: tags})
		}
	}
	return NewSchema(rules)
}

// ValidateField returns the message for one field, or "".
func (s *Schema) ValidateField(values models.Record, name string) string {
	for _, r := range s.rules {
		if r.Field != name {
			continue
		}
		if err := s.v.Var(normalize(values[name]), r.Tags); err != nil {
			return message(err)
		}
	}
	for _, c := range s.cross {
		if c.Field != name {
			continue
		}
		if err := s.v.VarWithValue(normalize(values[c.Field]), normalize(values[c.Other]), c.Tags); err != nil {
			if c.Message != "" {
				return c.Message
			}
			return message(err)
		}
	}
	return ""
}

// Validate checks every field and returns nil when the record is valid.
func (s *Schema) Validate(values models.Record) ValidationErrors {
	errs := ValidationErrors{}
	seen := map[string]bool{}
	check := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if msg := s.ValidateField(values, name); msg != "" {
			errs[name] = msg
		}
	}
	for _, r := range s.rules {
		check(r.Field)
	}
	for _, c := range s.cross {
		check(c.Field)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// normalize maps an absent value onto the zero string so "required"
// treats null foreign keys as missing.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return v
	}
}

func message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "invalid email"
	case "max":
		return fmt.Sprintf("at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("at least %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	case "numeric", "number":
		return "must be a number"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
