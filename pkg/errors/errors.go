package errors

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Error представляет кастомную ошибку с дополнительной информацией
type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Details string          `json:"details,omitempty"`
	Cause   error           `json:"-"`
	Context context.Context `json:"-"`
}

// ErrorCode представляет код ошибки
type ErrorCode string

// Определение кодов ошибок
const (
	ErrValidation       ErrorCode = "VALIDATION_ERROR"
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrInvalidToken     ErrorCode = "INVALID_TOKEN"
	ErrForbidden        ErrorCode = "FORBIDDEN"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrInvalidOperation ErrorCode = "INVALID_OPERATION"
	ErrConflict         ErrorCode = "CONFLICT"
	ErrUnavailable      ErrorCode = "UNAVAILABLE"
	ErrTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
)

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

// New создает новую кастомную ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает существующую ошибку в кастомную
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
		Context: e.Context,
	}
}

// WithContext добавляет контекст к ошибке
func (e *Error) WithContext(ctx context.Context) *Error {
	if e == nil {
		return nil
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   e.Cause,
		Context: ctx,
	}
}

// Code извлекает код ошибки из цепочки.
// Для ошибок, не являющихся *Error, возвращает ErrInternal.
func Code(err error) ErrorCode {
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// HasCode проверяет, содержит ли цепочка ошибку с указанным кодом
func HasCode(err error, code ErrorCode) bool {
	return stdErrors.Is(err, New(code, ""))
}

// HTTPStatus возвращает соответствующий HTTP статус для ошибки
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}

	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidOperation, ErrConflict:
		return http.StatusConflict
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GetUserMessage возвращает пользовательское сообщение об ошибке
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}

	if e.Context != nil {
		if localizedMsg, ok := e.Context.Value(localizedMessageKey{}).(string); ok {
			return localizedMsg
		}
	}

	switch e.Code {
	case ErrValidation:
		return "Ошибка валидации данных"
	case ErrUnauthorized, ErrInvalidToken:
		return "Не авторизован"
	case ErrForbidden:
		return "Доступ запрещен"
	case ErrNotFound:
		return "Ресурс не найден"
	case ErrInvalidOperation:
		return "Операция недопустима в текущем состоянии"
	case ErrConflict:
		return "Конфликт данных"
	case ErrUnavailable:
		return "Сервис временно недоступен"
	case ErrTooManyRequests:
		return "Слишком много запросов"
	default:
		return "Внутренняя ошибка сервера"
	}
}

// Response тело JSON ответа с ошибкой
type Response struct {
	Error ResponseBody `json:"error"`
}

// ResponseBody содержимое ошибки в ответе
type ResponseBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// WriteJSON отправляет ошибку клиенту в формате {"error":{code,message,details}}.
// Ошибки, не являющиеся *Error, отдаются как INTERNAL_ERROR без раскрытия причины.
func WriteJSON(w http.ResponseWriter, err error) {
	var e *Error
	if !stdErrors.As(err, &e) {
		e = New(ErrInternal, "internal server error")
	}

	body := Response{Error: ResponseBody{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}}
	if e.Code == ErrInternal {
		body.Error.Message = e.GetUserMessage()
		body.Error.Details = ""
	}

	jsonData, jsonErr := json.Marshal(body)
	if jsonErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	w.Write(jsonData)
}

type localizedMessageKey struct{}

// WithLocalizedMessage добавляет локализованное сообщение в контекст
func WithLocalizedMessage(ctx context.Context, localizedMessage string) context.Context {
	return context.WithValue(ctx, localizedMessageKey{}, localizedMessage)
}
