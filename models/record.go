// ABOUTME: Record shaping between the backend wire format and form state
// ABOUTME: Flattens nested foreign keys, builds whitelisted payloads and default drafts
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Defaults returns the empty draft of a resource.
func Defaults(res *Resource) Record {
	out := make(Record, len(res.Fields))
	for _, f := range res.Fields {
		out[f.Name] = zeroValue(f)
	}
	return out
}

func zeroValue(f Field) any {
	switch f.Kind {
	case KindBool:
		return false
	case KindNumber:
		return float64(0)
	case KindForeignKey:
		return nil
	case KindGrants:
		return []any{}
	default:
		return ""
	}
}

// Flatten maps a record fetched by id into form state: foreign keys nested
// as {id, ...display} become bare ids, null stays null, and only catalog
// fields survive. Missing fields take their defaults.
func Flatten(res *Resource, raw Record) Record {
	out := make(Record, len(res.Fields))
	for _, f := range res.Fields {
		v, ok := raw[f.Name]
		if !ok {
			out[f.Name] = zeroValue(f)
			continue
		}
		if f.Kind == KindForeignKey {
			out[f.Name] = flattenRef(v)
			continue
		}
		out[f.Name] = v
	}
	return out
}

func flattenRef(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if id, ok := t[IDField]; ok && id != nil {
			return Scalar(id)
		}
		return nil
	case Record:
		return flattenRef(map[string]any(t))
	case string:
		if t == "" {
			return nil
		}
		return t
	default:
		return Scalar(t)
	}
}

// Payload whitelists the business fields of a form state and attaches id
// when one is known. Incidental state never reaches the wire.
func Payload(res *Resource, values Record, id string) Record {
	out := make(Record, len(res.Fields)+1)
	for _, f := range res.Fields {
		v, ok := values[f.Name]
		if !ok {
			v = zeroValue(f)
		}
		if f.Kind == KindForeignKey {
			v = flattenRef(v)
		}
		out[f.Name] = v
	}
	if id != "" {
		out[IDField] = id
	}
	return out
}

// Path resolves a dotted path such as "estadoId.uf" against a record whose
// foreign keys may be expanded objects.
func (r Record) Path(path string) any {
	parts := strings.Split(path, ".")
	var cur any = map[string]any(r)
	for _, p := range parts {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[p]
		case Record:
			cur = m[p]
		default:
			return nil
		}
	}
	return cur
}

// Display renders a column value for a table cell.
func (r Record) Display(path string) string {
	v := r.Path(path)
	if b, ok := v.(bool); ok {
		if b {
			return "yes"
		}
		return "no"
	}
	return Scalar(v)
}

// ParseInput coerces text typed into an input into the field's wire type.
func ParseInput(f Field, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch f.Kind {
	case KindBool:
		if text == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%s: not a boolean: %q", f.Name, text)
		}
		return b, nil
	case KindNumber:
		if text == "" {
			return float64(0), nil
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: not a number: %q", f.Name, text)
		}
		return n, nil
	case KindForeignKey:
		if text == "" {
			return nil, nil
		}
		return text, nil
	default:
		return text, nil
	}
}
