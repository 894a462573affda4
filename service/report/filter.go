package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/brojonat/preflight/service/preflight"
	"github.com/itchyny/gojq"
)

// Filter is a compiled jq expression applied to the report document.
type Filter struct {
	expr string
	code *gojq.Code
}

// CompileFilter parses and compiles a jq expression.
func CompileFilter(expr string) (*Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, code: code}, nil
}

// Run evaluates the filter against the report and returns every result.
func (f *Filter) Run(r *preflight.Report) ([]any, error) {
	// gojq only understands the generic JSON types, so round-trip the document.
	data, err := json.Marshal(NewDocument(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	var results []any
	iter := f.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter %q: %w", f.expr, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// Write evaluates the filter and writes one JSON value per line, like jq -c.
func (f *Filter) Write(w io.Writer, r *preflight.Report) error {
	results, err := f.Run(r)
	if err != nil {
		return err
	}
	for _, v := range results {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal jq result: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}
	return nil
}
