package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/dyluth/roster/pkg/roster"
)

// Violation names the offending field path and the rule it broke.
// Paths are JSON pointers: "/status" for a single entry, "/3/status" inside a collection.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String formats the violation as "<path> <message>", the audit line format.
func (v Violation) String() string {
	return v.Path + " " + v.Message
}

// ViolationError is returned when a candidate fails validation.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	if len(e.Violations) == 1 {
		return "schema violation: " + e.Violations[0].String()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("schema violation: %d problems: %s", len(e.Violations), strings.Join(parts, "; "))
}

// rootPath is printed when the whole candidate is at fault.
const rootPath = "(root)"

func join(prefix, name string) string {
	return prefix + "/" + name
}

func pathOrRoot(p string) string {
	if p == "" {
		return rootPath
	}
	return p
}

// ValidateEntry checks a single decoded JSON value against the definition.
// It reports at most one violation per field so each defect yields one line.
func (d *Definition) ValidateEntry(candidate any) []Violation {
	return d.validateAt("", candidate)
}

// ValidateCollection checks every entry of a decoded JSON array and reports
// every violation found, including positions shared by several entries.
func (d *Definition) ValidateCollection(candidates any) []Violation {
	items, ok := candidates.([]any)
	if !ok {
		return []Violation{{Path: rootPath, Message: "must be an array of entries"}}
	}

	violations := []Violation{}
	firstSeen := make(map[int64]string)

	for i, item := range items {
		prefix := "/" + strconv.Itoa(i)
		violations = append(violations, d.validateAt(prefix, item)...)

		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, value, ok := d.lookup(obj, "position")
		if !ok {
			continue
		}
		position, ok := asInteger(value)
		if !ok {
			continue
		}
		if first, dup := firstSeen[position]; dup {
			violations = append(violations, Violation{
				Path:    join(prefix, key),
				Message: fmt.Sprintf("duplicate position %d (first used at %s)", position, first),
			})
			continue
		}
		firstSeen[position] = prefix
	}

	return violations
}

// Decode validates candidate and converts it to an Entry.
// Validation failures are returned as *ViolationError.
func (d *Definition) Decode(candidate map[string]any) (*roster.Entry, error) {
	if violations := d.ValidateEntry(candidate); len(violations) > 0 {
		return nil, &ViolationError{Violations: violations}
	}

	entry := &roster.Entry{}
	if _, v, ok := d.lookup(candidate, "position"); ok {
		position, _ := asInteger(v)
		entry.Position = int(position)
	}
	if _, v, ok := d.lookup(candidate, "name"); ok {
		entry.Name, _ = v.(string)
	}
	if _, v, ok := d.lookup(candidate, "status"); ok {
		status, _ := v.(string)
		entry.Status = roster.Status(status)
	}
	return entry, nil
}

func (d *Definition) validateAt(prefix string, candidate any) []Violation {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return []Violation{{Path: pathOrRoot(prefix), Message: "must be an object"}}
	}

	var violations []Violation

	for i := range d.Fields {
		f := &d.Fields[i]

		present := f.spellings(obj)
		if len(present) > 1 {
			violations = append(violations, Violation{
				Path:    join(prefix, present[1]),
				Message: fmt.Sprintf("is an alias of %s; supply only one of %s", f.Name, strings.Join(f.allNames(), ", ")),
			})
			continue
		}

		var key string
		var value any
		if len(present) == 1 {
			key = present[0]
			value = obj[key]
		}

		optional := f.OptionalWhen != nil && d.conditionHolds(obj, f.OptionalWhen)

		if value == nil {
			if f.Required && !optional {
				violations = append(violations, Violation{Path: join(prefix, f.Name), Message: "is required"})
			}
			continue
		}

		if msg := f.check(value, optional); msg != "" {
			violations = append(violations, Violation{Path: join(prefix, key), Message: msg})
		}
	}

	if !d.AdditionalFields {
		var unknown []string
		for k := range obj {
			if d.owner(k) == nil {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			violations = append(violations, Violation{Path: join(prefix, k), Message: "is not a recognised field"})
		}
	}

	return violations
}

// check applies type, enum and non-empty rules. Returns "" when the value passes.
func (f *Field) check(value any, optional bool) string {
	switch f.Type {
	case TypeInteger:
		n, ok := asNumber(value)
		if !ok {
			return fmt.Sprintf("must be an integer, got %s", jsonType(value))
		}
		if n != math.Trunc(n) {
			return fmt.Sprintf("must be an integer, got %v", value)
		}
		if math.Abs(n) > roster.MaxPosition {
			return fmt.Sprintf("must be between %d and %d", -roster.MaxPosition, roster.MaxPosition)
		}
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("must be a string, got %s", jsonType(value))
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return fmt.Sprintf("must be one of %s, got %q", strings.Join(f.Enum, ", "), s)
		}
		if f.NonEmpty && !optional && strings.TrimSpace(s) == "" {
			if f.OptionalWhen != nil {
				return fmt.Sprintf("must not be empty unless %s is %q", f.OptionalWhen.Field, f.OptionalWhen.Equals)
			}
			return "must not be empty"
		}
	}
	return ""
}

func (f *Field) allNames() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// spellings returns the names of this field present in obj, canonical name first.
func (f *Field) spellings(obj map[string]any) []string {
	var present []string
	for _, n := range f.allNames() {
		if _, ok := obj[n]; ok {
			present = append(present, n)
		}
	}
	return present
}

// owner resolves a wire key to its field.
func (d *Definition) owner(key string) *Field {
	for i := range d.Fields {
		if slices.Contains(d.Fields[i].allNames(), key) {
			return &d.Fields[i]
		}
	}
	return nil
}

// lookup returns the key and value used for a canonical field in obj.
func (d *Definition) lookup(obj map[string]any, name string) (string, any, bool) {
	f := d.Field(name)
	if f == nil {
		return "", nil, false
	}
	for _, n := range f.allNames() {
		if v, ok := obj[n]; ok && v != nil {
			return n, v, true
		}
	}
	return "", nil, false
}

func (d *Definition) conditionHolds(obj map[string]any, c *Condition) bool {
	_, v, ok := d.lookup(obj, c.Field)
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == c.Equals
}

// asNumber accepts the numeric representations produced by encoding/json,
// with or without UseNumber, and by yaml.v3.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// asInteger returns v as an integer when it passes the integer rule.
func asInteger(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		if err == nil {
			return i, math.Abs(float64(i)) <= roster.MaxPosition
		}
	}
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > roster.MaxPosition {
		return 0, false
	}
	return int64(f), true
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		if _, ok := asNumber(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}

// ValidatePatch checks a partial update. Only fields not listed in immutable
// may appear; each present field must satisfy its type and enum rules.
// Cross-field rules are checked on the merged entry by the caller.
func (d *Definition) ValidatePatch(candidate any, immutable ...string) []Violation {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return []Violation{{Path: rootPath, Message: "must be an object"}}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var violations []Violation
	for _, k := range keys {
		f := d.owner(k)
		switch {
		case f == nil:
			violations = append(violations, Violation{Path: join("", k), Message: "is not a recognised field"})
		case slices.Contains(immutable, f.Name):
			violations = append(violations, Violation{Path: join("", k), Message: "cannot be changed"})
		case obj[k] == nil:
			violations = append(violations, Violation{Path: join("", k), Message: "must not be null"})
		default:
			if msg := f.check(obj[k], true); msg != "" {
				violations = append(violations, Violation{Path: join("", k), Message: msg})
			}
		}
	}
	return violations
}

// DecodePatch validates a partial update and converts it to a roster.Patch.
// Position is immutable.
func (d *Definition) DecodePatch(candidate map[string]any) (roster.Patch, error) {
	if violations := d.ValidatePatch(candidate, "position"); len(violations) > 0 {
		return roster.Patch{}, &ViolationError{Violations: violations}
	}

	var patch roster.Patch
	if _, v, ok := d.lookup(candidate, "name"); ok {
		name, _ := v.(string)
		patch.Name = &name
	}
	if _, v, ok := d.lookup(candidate, "status"); ok {
		s, _ := v.(string)
		status := roster.Status(s)
		patch.Status = &status
	}
	return patch, nil
}

// EntryFields returns an entry as the field map ValidateEntry expects.
func EntryFields(e roster.Entry) map[string]any {
	return map[string]any{
		"position": e.Position,
		"name":     e.Name,
		"status":   string(e.Status),
	}
}
