package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kingrea/fieldcrm/internal/models"
)

// ErrUnauthorized matches any *Error carrying a 401 status.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error is returned for every response outside 2xx.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Problem    *models.ProblemDetails
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message())
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// FieldErrors returns the validation errors of the problem body, if any.
func (e *Error) FieldErrors() map[string][]string {
	if e.Problem == nil {
		return nil
	}
	return e.Problem.Errors
}

// Message picks the most useful human text out of the response.
func (e *Error) Message() string {
	if e.Problem != nil {
		if d := strings.TrimSpace(e.Problem.Detail); d != "" {
			return d
		}
		if t := strings.TrimSpace(e.Problem.Title); t != "" {
			return t
		}
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Body, &envelope) == nil && strings.TrimSpace(envelope.Message) != "" {
		return strings.TrimSpace(envelope.Message)
	}
	if text := strings.TrimSpace(string(e.Body)); text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		if len(text) > 160 {
			text = text[:160] + "…"
		}
		return text
	}
	return http.StatusText(e.StatusCode)
}

// Message returns a short user-facing description of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}

// FieldErrors extracts server-side validation errors from err.
func FieldErrors(err error) map[string][]string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.FieldErrors()
	}
	return nil
}

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, StatusCode: status, Body: body}
	var problem models.ProblemDetails
	if len(body) > 0 && json.Unmarshal(body, &problem) == nil {
		if problem.Title != "" || problem.Detail != "" || len(problem.Errors) > 0 {
			e.Problem = &problem
		}
	}
	return e
}

func retryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, errDecode)
}

var errDecode = errors.New("api: decode response")
