package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestNewError проверяет создание новой ошибки
func TestNewError(t *testing.T) {
	e := New(ErrNotFound, "listing not found")
	if e == nil {
		t.Fatal("Expected error, got nil")
	}

	if e.Code != ErrNotFound {
		t.Errorf("Expected code %s, got %s", ErrNotFound, e.Code)
	}

	if e.Message != "listing not found" {
		t.Errorf("Expected message 'listing not found', got %s", e.Message)
	}

	if e.Cause != nil {
		t.Error("Expected cause to be nil")
	}
}

// TestWrapError проверяет оборачивание существующей ошибки
func TestWrapError(t *testing.T) {
	originalErr := fmt.Errorf("connection refused")
	e := Wrap(originalErr, ErrUnavailable, "failed to load listing")

	if e == nil {
		t.Fatal("Expected error, got nil")
	}

	if e.Code != ErrUnavailable {
		t.Errorf("Expected code %s, got %s", ErrUnavailable, e.Code)
	}

	if e.Error() != "failed to load listing: connection refused" {
		t.Errorf("Unexpected error string: %s", e.Error())
	}

	if Wrap(nil, ErrInternal, "nothing") != nil {
		t.Error("Wrap of nil must return nil")
	}
}

// TestWithDetails проверяет добавление деталей к ошибке
func TestWithDetails(t *testing.T) {
	e := New(ErrValidation, "invalid input")
	eWithDetails := e.WithDetails("amount must be greater than zero")

	if eWithDetails.Details != "amount must be greater than zero" {
		t.Errorf("Unexpected details: %s", eWithDetails.Details)
	}

	// Исходная ошибка не должна измениться
	if e.Details != "" {
		t.Error("Original error should not have details")
	}
}

// TestWithContext проверяет добавление контекста к ошибке
func TestWithContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), "trace_id", "123")
	e := New(ErrUnauthorized, "missing credential")
	eWithContext := e.WithContext(ctx)

	if eWithContext.Context == nil {
		t.Fatal("Expected context, got nil")
	}

	if e.Context != nil {
		t.Error("Original error should not have context")
	}
}

// TestErrorIs проверяет сравнение по коду через errors.Is
func TestErrorIs(t *testing.T) {
	e := New(ErrInvalidOperation, "tip is not pending")
	wrapped := fmt.Errorf("complete tip: %w", e)

	if !HasCode(wrapped, ErrInvalidOperation) {
		t.Error("Expected wrapped error to carry INVALID_OPERATION")
	}

	if HasCode(wrapped, ErrNotFound) {
		t.Error("Expected wrapped error not to carry NOT_FOUND")
	}
}

// TestCode проверяет извлечение кода
func TestCode(t *testing.T) {
	if Code(fmt.Errorf("outer: %w", New(ErrForbidden, "denied"))) != ErrForbidden {
		t.Error("Expected FORBIDDEN")
	}

	if Code(fmt.Errorf("plain")) != ErrInternal {
		t.Error("Expected INTERNAL_ERROR for foreign errors")
	}
}

// TestHTTPStatus проверяет соответствие HTTP статусов
func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidOperation, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{ErrInternal, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		e := New(tc.code, "test message")
		if status := e.HTTPStatus(); status != tc.expected {
			t.Errorf("For code %s, expected HTTP status %d, got %d", tc.code, tc.expected, status)
		}
	}
}

// TestGetUserMessage_Localized проверяет локализованное сообщение из контекста
func TestGetUserMessage_Localized(t *testing.T) {
	ctx := WithLocalizedMessage(context.Background(), "Listing not found")
	e := New(ErrNotFound, "listing not found").WithContext(ctx)

	if e.GetUserMessage() != "Listing not found" {
		t.Errorf("Expected localized message, got %s", e.GetUserMessage())
	}

	if New(ErrForbidden, "x").GetUserMessage() != "Доступ запрещен" {
		t.Error("Expected default russian message")
	}
}

// TestWriteJSON проверяет формат ответа с ошибкой
func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, fmt.Errorf("create tip: %w", New(ErrInvalidOperation, "cannot tip own listing")))

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}

	if body.Error.Code != ErrInvalidOperation {
		t.Errorf("Expected code INVALID_OPERATION, got %s", body.Error.Code)
	}
	if body.Error.Message != "cannot tip own listing" {
		t.Errorf("Unexpected message: %s", body.Error.Message)
	}
}

// TestWriteJSON_ForeignError проверяет, что причина внутренней ошибки не раскрывается
func TestWriteJSON_ForeignError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, fmt.Errorf("pq: password authentication failed"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}

	if body.Error.Code != ErrInternal {
		t.Errorf("Expected INTERNAL_ERROR, got %s", body.Error.Code)
	}
	if body.Error.Message != "Внутренняя ошибка сервера" {
		t.Errorf("Unexpected message: %s", body.Error.Message)
	}
}
