package view

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/teamleave/leaveapi/internal/db/models"
)

// formPayload builds the template data for a displayed or redisplayed
// form. A fresh CSRF token is issued on every render.
func formPayload(m FormModel, errs *Errors) TemplateData {
	return TemplateData{
		m.Name():     m,
		"errors":     errs.List(),
		"csrf_token": uuid.NewString(),
	}
}

// renderForm runs the shared submit flow for create and edit: cancel
// wins over everything, an unsubmitted form is displayed as-is, and a
// submitted form goes through structural checks, field application,
// the prepare hook and model validation before persist is called. Any
// recorded error redisplays the form instead of persisting.
func renderForm(c *Ctx, m FormModel, route string, check func(c *Ctx, errs *Errors), prepare func(c *Ctx, m FormModel) error, persist func(c *Ctx) error) (Response, error) {
	if c.HasField(CancelledField) {
		return Redirect{Route: route}, nil
	}
	if !c.HasField(SubmittedField) {
		return formPayload(m, &Errors{}), nil
	}

	var errs Errors
	if check != nil {
		check(c, &errs)
	}
	if errs.Empty() {
		if err := applyForm(c.Request.Form, m); err != nil {
			errs.Addf("invalid field value: %v", err)
		}
	}
	if errs.Empty() && prepare != nil {
		if err := prepare(c, m); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", m.Name(), err)
		}
	}
	if errs.Empty() {
		if err := m.Validate(c.Request.Context(), c.Tx); err != nil {
			merr, ok := models.AsModelError(err)
			if !ok {
				return nil, fmt.Errorf("validate %s: %w", m.Name(), err)
			}
			errs.Extend(merr.Messages())
		}
	}
	if !errs.Empty() {
		return formPayload(m, &errs), nil
	}

	if err := persist(c); err != nil {
		return nil, fmt.Errorf("persist %s: %w", m.Name(), err)
	}
	return Redirect{Route: route}, nil
}

// CreateView displays and processes the creation form for a model.
type CreateView struct {
	// Model builds an empty draft to fill from the form.
	Model func() FormModel
	// Route names the redirect target after success or cancel.
	Route string
	// Check runs the form-level structural checks, if any.
	Check func(c *Ctx, errs *Errors)
	// Prepare adjusts the draft after field application and before
	// validation, if set.
	Prepare func(c *Ctx, m FormModel) error
}

func (v CreateView) Render(c *Ctx) (Response, error) {
	m := v.Model()
	return renderForm(c, m, v.Route, v.Check, v.Prepare, func(c *Ctx) error {
		_, err := c.Tx.NewInsert().Model(m).Exec(c.Request.Context())
		return err
	})
}

// EditView displays and processes the edit form for an existing
// model. A missing or malformed id is a fatal error, not a
// validation failure.
type EditView struct {
	// Load fetches the model by primary key.
	Load func(c *Ctx, id int64) (FormModel, error)
	// Route names the redirect target after success or cancel.
	Route string
	// Check runs the form-level structural checks, if any.
	Check func(c *Ctx, errs *Errors)
}

func (v EditView) Render(c *Ctx) (Response, error) {
	// Cancel wins before the draft is even loaded, so a cancelled
	// submission never fails on a stale id.
	if c.HasField(CancelledField) {
		return Redirect{Route: v.Route}, nil
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", c.Param("id"), err)
	}
	m, err := v.Load(c, id)
	if err != nil {
		return nil, fmt.Errorf("load id %d: %w", id, err)
	}
	return renderForm(c, m, v.Route, v.Check, nil, func(c *Ctx) error {
		_, err := c.Tx.NewUpdate().Model(m).WherePK().Exec(c.Request.Context())
		return err
	})
}

// DeleteView confirms and processes the deletion of an existing
// model. Without the submit marker it renders the confirmation
// payload and touches nothing.
type DeleteView struct {
	// Load fetches the model by primary key.
	Load func(c *Ctx, id int64) (FormModel, error)
	// Route names the redirect target after deletion or cancel.
	Route string
}

func (v DeleteView) Render(c *Ctx) (Response, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", c.Param("id"), err)
	}
	m, err := v.Load(c, id)
	if err != nil {
		return nil, fmt.Errorf("load id %d: %w", id, err)
	}

	if c.HasField(CancelledField) {
		return Redirect{Route: v.Route}, nil
	}
	if !c.HasField(SubmittedField) {
		return TemplateData{m.Name(): m}, nil
	}

	if _, err := c.Tx.NewDelete().Model(m).WherePK().Exec(c.Request.Context()); err != nil {
		return nil, fmt.Errorf("delete %s id %d: %w", m.Name(), id, err)
	}
	return Redirect{Route: v.Route}, nil
}
