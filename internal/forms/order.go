package forms

import (
	"strings"
	"unicode/utf8"

	"github.com/kingrea/fieldcrm/internal/models"
	"github.com/kingrea/fieldcrm/internal/workflow"
)

// Order field keys.
const (
	FieldTitle       = "Title"
	FieldDescription = "Description"
)

// OrderForm holds the raw text of the add/edit order screen.
type OrderForm struct {
	Title       string
	Description string
}

// BuildCreate validates a new order: title 2-25 characters, description
// 10-300 characters. New orders start Pending.
func (f OrderForm) BuildCreate() (models.OrderInput, FieldErrors) {
	errs := FieldErrors{}
	if n := utf8.RuneCountInString(f.Title); n < 2 || n > 25 {
		errs.Add(FieldTitle, "Title must be 2–25 characters")
	}
	if n := utf8.RuneCountInString(f.Description); n < 10 || n > 300 {
		errs.Add(FieldDescription, "Description must be 10–300 characters")
	}
	if len(errs) > 0 {
		return models.OrderInput{}, errs
	}
	return models.OrderInput{
		Title:       f.Title,
		Description: f.Description,
		Status:      string(workflow.StatusPending),
	}, nil
}

// BuildUpdate validates an edit; only the title is required.
func (f OrderForm) BuildUpdate() (models.OrderUpdate, FieldErrors) {
	if blank(f.Title) {
		return models.OrderUpdate{}, FieldErrors{FieldTitle: {"Title is required"}}
	}
	return models.OrderUpdate{Title: strings.TrimSpace(f.Title), Description: f.Description}, nil
}
