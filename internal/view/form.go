package view

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/uptrace/bun"
)

// Form markers set by the submit and cancel buttons.
const (
	SubmittedField = "form.submitted"
	CancelledField = "form.cancelled"
)

// FormModel is a draft model editable through a prefixed form.
// FormFields is the explicit allow-list of writable fields; submitted
// fields outside it are ignored. Validate runs the model-level
// semantic checks against the store.
type FormModel interface {
	Name() string
	FormFields() []string
	Validate(ctx context.Context, db bun.IDB) error
}

// parseForm extracts the submitted values addressed to the model:
// keys shaped "<name>.<field>" with a non-empty value and a field on
// the allow-list.
func parseForm(values url.Values, m FormModel) map[string]any {
	allowed := make(map[string]bool, len(m.FormFields()))
	for _, f := range m.FormFields() {
		allowed[f] = true
	}

	prefix := m.Name() + "."
	out := make(map[string]any)
	for key, vals := range values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		field := strings.TrimPrefix(key, prefix)
		if !allowed[field] || len(vals) == 0 || vals[0] == "" {
			continue
		}
		out[field] = vals[0]
	}
	return out
}

// applyForm decodes the submitted fields into the draft model.
func applyForm(values url.Values, m FormModel) error {
	fields := parseForm(values, m)
	if len(fields) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           m,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02"),
	})
	if err != nil {
		return fmt.Errorf("build form decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("decode form fields: %w", err)
	}
	return nil
}

// Errors collects the validation failures shown on a redisplayed
// form. They are returned to the caller, never raised.
type Errors struct {
	list []string
}

// Addf records a failure.
func (e *Errors) Addf(format string, args ...any) {
	e.list = append(e.list, fmt.Sprintf(format, args...))
}

// Extend records a batch of failures.
func (e *Errors) Extend(msgs []string) {
	e.list = append(e.list, msgs...)
}

// Empty reports whether no failure was recorded.
func (e *Errors) Empty() bool {
	return len(e.list) == 0
}

// List returns the failures, never nil.
func (e *Errors) List() []string {
	if e.list == nil {
		return []string{}
	}
	return e.list
}
