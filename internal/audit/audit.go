// Package audit validates a whole registry collection offline and reports
// every violation, one line each.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/dyluth/roster/internal/schema"
)

// Report summarises one audit run.
type Report struct {
	RunID      string
	Entries    int
	Violations []schema.Violation
}

// OK reports whether the collection passed.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Dumper reads raw stored entry hashes.
type Dumper interface {
	Dump(ctx context.Context) ([]map[string]string, error)
}

// Auditor checks collections against a schema definition and prints
// "<path> <message>" for each violation.
type Auditor struct {
	def *schema.Definition
	out io.Writer
}

// New creates an auditor writing violation lines to out.
func New(def *schema.Definition, out io.Writer) *Auditor {
	return &Auditor{def: def, out: out}
}

// Run audits a JSON array read from r. A body that is not JSON at all is an
// operational error; anything that parses is audited and reported.
func (a *Auditor) Run(r io.Reader) (*Report, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var collection any
	if err := dec.Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to parse collection: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse collection: unexpected data after the top-level value")
	}

	return a.check(collection)
}

// RunStore audits the collection as persisted in the store.
func (a *Auditor) RunStore(ctx context.Context, store Dumper) (*Report, error) {
	hashes, err := store.Dump(ctx)
	if err != nil {
		return nil, err
	}

	collection := make([]any, len(hashes))
	for i, h := range hashes {
		collection[i] = fromHash(h)
	}
	return a.check(collection)
}

func (a *Auditor) check(collection any) (*Report, error) {
	report := &Report{
		RunID:      uuid.New().String(),
		Violations: a.def.ValidateCollection(collection),
	}
	if items, ok := collection.([]any); ok {
		report.Entries = len(items)
	}

	for _, v := range report.Violations {
		if _, err := fmt.Fprintln(a.out, v.String()); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return report, nil
}

// fromHash turns a stored hash back into the shape ValidateEntry expects.
// Redis stores strings only, so integer-looking values become numbers.
func fromHash(h map[string]string) map[string]any {
	obj := make(map[string]any, len(h))
	for k, v := range h {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && k != "name" && k != "status" {
			obj[k] = n
			continue
		}
		obj[k] = v
	}
	return obj
}
