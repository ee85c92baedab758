// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error_WithWrapped(t *testing.T) {
	inner := fmt.Errorf("db connection failed")
	ae := Wrap(inner, CodeInternal, "service error")

	got := ae.Error()
	if !strings.Contains(got, CodeInternal) {
		t.Errorf("Error() missing code, got: %s", got)
	}
	if !strings.Contains(got, "service error") {
		t.Errorf("Error() missing message, got: %s", got)
	}
	if !strings.Contains(got, "db connection failed") {
		t.Errorf("Error() missing wrapped error, got: %s", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("original error")
	ae := Wrap(inner, CodeInternal, "wrapped")

	if ae.Unwrap() != inner {
		t.Error("Unwrap() did not return the wrapped error")
	}

	plain := New(CodeInternal, "no inner")
	if plain.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no wrapped error")
	}
}

func TestNew(t *testing.T) {
	ae := New(CodeBadRequest, "bad input")

	if ae.Code != CodeBadRequest {
		t.Errorf("Code = %q, want %q", ae.Code, CodeBadRequest)
	}
	if ae.Message != "bad input" {
		t.Errorf("Message = %q, want %q", ae.Message, "bad input")
	}
	if ae.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want %d", ae.HTTPStatus, http.StatusInternalServerError)
	}
}

func TestNewf(t *testing.T) {
	ae := Newf(CodeBadRequest, "field %s is %s", "email", "invalid")
	want := "field email is invalid"
	if ae.Message != want {
		t.Errorf("Message = %q, want %q", ae.Message, want)
	}
}

func TestWithDetail_InitializesMap(t *testing.T) {
	ae := New(CodeValidation, "bad")
	ae.WithDetail("field", "title")

	if ae.Details["field"] != "title" {
		t.Errorf("Details[field] = %v, want %q", ae.Details["field"], "title")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"NotFound", NotFound("asset"), CodeNotFound, http.StatusNotFound},
		{"AlreadyExists", AlreadyExists("guide"), CodeAlreadyExists, http.StatusConflict},
		{"InvalidInput", InvalidInput("bad date"), CodeBadRequest, http.StatusBadRequest},
		{"NewValidationError", NewValidationError("title required"), CodeValidation, http.StatusBadRequest},
		{"Unauthorized", Unauthorized(""), CodeUnauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden(""), CodeForbidden, http.StatusForbidden},
		{"Internal", Internal(fmt.Errorf("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.wantCode {
				t.Errorf("Code = %q, want %q", tc.err.Code, tc.wantCode)
			}
			if tc.err.HTTPStatus != tc.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tc.err.HTTPStatus, tc.wantStatus)
			}
		})
	}
}

func TestNotFound_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("load asset: %w", NotFound("asset"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped NotFound should match ErrNotFound")
	}
}

func TestGetAppError_FromWrapped(t *testing.T) {
	ae := NotFound("event")
	wrapped := fmt.Errorf("get event: %w", ae)

	got := GetAppError(wrapped)
	if got != ae {
		t.Error("GetAppError did not unwrap to the original AppError")
	}
}

func TestGetAppError_FromPlainError(t *testing.T) {
	got := GetAppError(fmt.Errorf("plain"))
	if got.Code != CodeInternal {
		t.Errorf("Code = %q, want %q", got.Code, CodeInternal)
	}
	if got.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, http.StatusInternalServerError)
	}
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NewValidationError("x"), http.StatusBadRequest},
		{"sentinel not found", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel conflict", fmt.Errorf("x: %w", ErrAlreadyExist), http.StatusConflict},
		{"sentinel unauthorized", fmt.Errorf("x: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"sentinel forbidden", fmt.Errorf("x: %w", ErrForbidden), http.StatusForbidden},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatusCode(tc.err); got != tc.want {
				t.Errorf("HTTPStatusCode = %d, want %d", got, tc.want)
			}
		})
	}
}
