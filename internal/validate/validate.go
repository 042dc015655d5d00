// Package validate implements schema-driven validation of request input.
//
// WHY A SCHEMA AND NOT STRUCT TAGS?
// Handlers receive loose input — a parsed JSON body or query-string pairs —
// and need to turn it into a typed bag of values with defaults filled in
// and every constraint checked. A schema is an ordered list of field
// declarations; validating walks the declarations (never the input), which
// gives three properties the API contract depends on:
//
//  1. Unknown input fields are ignored, not errors.
//  2. Errors are collected for ALL fields before failing — a payload with
//     three bad fields produces three error entries, not one.
//  3. Error order follows declaration order, so responses are stable.
//
// COERCION IS LOSSY-SAFE:
// Query parameters arrive as strings, so "2" is accepted for an int field.
// Anything that cannot round-trip exactly — "2.5", "abc", a fractional
// JSON number — is rejected, never truncated.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// EmailPattern matches the address format accepted at registration.
var EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// GitHubUsernamePattern is the format fallback used when live verification
// against the GitHub API is unavailable.
var GitHubUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Kind is the declared type of a schema field.
type Kind int

const (
	String Kind = iota
	Int
	Bool
)

// Field declares one named input field and its constraints.
//
// Zero values mean "no constraint": MaxLen 0 imposes no length cap,
// a nil Min/Max imposes no numeric bound, a nil Pattern no format check.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Default  any // used when an optional field is absent

	// String constraints
	MinLen  int
	MaxLen  int
	Enum    []string
	Pattern *regexp.Regexp
	// PatternMsg overrides the generic "invalid format" message,
	// e.g. "Invalid email format".
	PatternMsg string

	// Int constraints (pointers so 0 stays a usable bound)
	Min *int
	Max *int
}

// Schema is an ordered set of field declarations. Build one per endpoint
// at package init and reuse it — schemas are immutable after creation.
type Schema struct {
	fields []Field
}

// NewSchema creates a Schema from field declarations in validation order.
func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

// Request is the validated, typed result. It contains only declared
// fields. It is created per-request and owned by the handler that made it.
type Request struct {
	values map[string]any
}

// String returns the value of a string field ("" when absent).
func (r Request) String(name string) string {
	s, _ := r.values[name].(string)
	return s
}

// Int returns the value of an int field (0 when absent).
func (r Request) Int(name string) int {
	n, _ := r.values[name].(int)
	return n
}

// Bool returns the value of a bool field (false when absent).
func (r Request) Bool(name string) bool {
	b, _ := r.values[name].(bool)
	return b
}

// Has reports whether the field was present in the input or defaulted.
func (r Request) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Errors carries per-field validation messages. It implements error so
// services and handlers can pass it along like any other failure.
type Errors struct {
	Fields map[string][]string
}

func (e *Errors) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

func (e *Errors) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Validate checks input against the schema.
//
// On success the returned Errors is nil and Request holds every declared
// field that was provided or defaulted. On failure Request is the zero
// value and Errors lists every problem found — validation never stops at
// the first bad field.
func (s *Schema) Validate(input map[string]any) (Request, *Errors) {
	verrs := &Errors{}
	values := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		raw, present := input[f.Name]
		if !present || raw == nil {
			if f.Required {
				verrs.add(f.Name, "This field is required")
				continue
			}
			if f.Default != nil {
				values[f.Name] = f.Default
			}
			continue
		}

		switch f.Kind {
		case String:
			str, ok := raw.(string)
			if !ok {
				verrs.add(f.Name, "Must be a string")
				continue
			}
			s.checkString(f, str, verrs)
			values[f.Name] = str

		case Int:
			n, ok := coerceInt(raw)
			if !ok {
				verrs.add(f.Name, "Must be an integer")
				continue
			}
			s.checkInt(f, n, verrs)
			values[f.Name] = n

		case Bool:
			b, ok := coerceBool(raw)
			if !ok {
				verrs.add(f.Name, "Must be a boolean")
				continue
			}
			values[f.Name] = b
		}
	}

	if len(verrs.Fields) > 0 {
		return Request{}, verrs
	}
	return Request{values: values}, nil
}

func (s *Schema) checkString(f Field, str string, verrs *Errors) {
	if f.MinLen > 0 && len(str) < f.MinLen {
		verrs.add(f.Name, fmt.Sprintf("Must be at least %d characters", f.MinLen))
	}
	if f.MaxLen > 0 && len(str) > f.MaxLen {
		verrs.add(f.Name, fmt.Sprintf("Must be at most %d characters", f.MaxLen))
	}
	if len(f.Enum) > 0 && !contains(f.Enum, str) {
		verrs.add(f.Name, fmt.Sprintf("Must be one of: %s", strings.Join(f.Enum, ", ")))
	}
	if f.Pattern != nil && !f.Pattern.MatchString(str) {
		msg := f.PatternMsg
		if msg == "" {
			msg = "Invalid format"
		}
		verrs.add(f.Name, msg)
	}
}

func (s *Schema) checkInt(f Field, n int, verrs *Errors) {
	if f.Min != nil && n < *f.Min {
		verrs.add(f.Name, fmt.Sprintf("Must be at least %d", *f.Min))
	}
	if f.Max != nil && n > *f.Max {
		verrs.add(f.Name, fmt.Sprintf("Must be at most %d", *f.Max))
	}
}

// coerceInt accepts ints, integral JSON numbers (float64), and numeric
// strings. "2" → 2; "2.5", NaN-ish strings, and fractional floats fail.
func coerceInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		// encoding/json decodes every number as float64 — only accept
		// values that are exactly integral.
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func coerceBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// IntPtr is a convenience for declaring Min/Max bounds inline.
func IntPtr(n int) *int { return &n }

// JSONBody parses a request body into the loose map the validator expects.
// A missing or syntactically broken body is an error here (it cannot be
// attributed to any one field), handled by the caller as a plain 400.
func JSONBody(r *http.Request) (map[string]any, error) {
	var input map[string]any
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return nil, fmt.Errorf("validate: decoding JSON body: %w", err)
	}
	return input, nil
}

// QueryValues converts query parameters into validator input.
// Only the first value of each key is used; absent keys stay absent so
// defaults apply.
func QueryValues(q url.Values) map[string]any {
	input := make(map[string]any, len(q))
	for key, vals := range q {
		if len(vals) > 0 {
			input[key] = vals[0]
		}
	}
	return input
}
