package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/promptflow/pkg/domain"
)

// ValidationError represents a single structural violation of a document.
type ValidationError struct {
	Issue domain.Issue
}

func (e *ValidationError) Error() string {
	return FormatIssue(e.Issue)
}

// Unwrap lets callers match any validation failure with domain.ErrInvalidDocument.
func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidDocument
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// newAggregateError wraps the errors of a result.
func newAggregateError(result domain.Result) *AggregateError {
	errs := make([]error, len(result.Errors))
	for i, issue := range result.Errors {
		errs[i] = &ValidationError{Issue: issue}
	}
	return &AggregateError{Errors: errs}
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Messages renders err as user-facing lines. Validation failures become one
// "<path>: <message>" line per distinct issue; any other error is a single line.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	if errs := ValidationErrors(err); errs != nil {
		issues := make([]domain.Issue, 0, len(errs))
		for _, e := range errs {
			var ve *ValidationError
			if errors.As(e, &ve) {
				issues = append(issues, ve.Issue)
			}
		}
		return FormatIssues(issues)
	}
	if msg := err.Error(); msg != "" {
		return []string{msg}
	}
	return []string{"Invalid JSON input"}
}
