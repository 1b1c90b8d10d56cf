package validation

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "SubletHubPlatform/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Validator предоставляет общие функции валидации.
// Все методы возвращают *errors.Error с кодом VALIDATION_ERROR.
type Validator struct {
	validate *validator.Validate
}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	validate := validator.New()

	// В сообщениях используем имена полей из json тегов
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// Регистрация ошибки невозможна только при пустом имени тега
	_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return isHTTPURL(fl.Field().String())
	})

	return &Validator{validate: validate}
}

// ValidateStruct проверяет структуру по тегам validate и возвращает первое нарушение
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return apperrors.Wrap(err, apperrors.ErrValidation, "invalid input")
	}

	fe := validationErrors[0]
	return apperrors.New(apperrors.ErrValidation, "invalid input").WithDetails(describe(fe))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "httpurl":
		return fmt.Sprintf("%s must be an absolute http(s) URL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// ValidateAmount проверяет денежную сумму: больше нуля и не более двух знаков после запятой
func (v *Validator) ValidateAmount(amount float64, fieldName string) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return invalid("%s must be greater than zero", fieldName)
	}

	// Кратчайшее десятичное представление, например 10.5 -> "10.5"
	formatted := strconv.FormatFloat(amount, 'f', -1, 64)
	if dot := strings.IndexByte(formatted, '.'); dot >= 0 && len(formatted)-dot-1 > 2 {
		return invalid("%s must have at most 2 decimal places", fieldName)
	}

	return nil
}

// ValidatePrice проверяет неотрицательную цену
func (v *Validator) ValidatePrice(price float64, fieldName string) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return invalid("%s must not be negative", fieldName)
	}
	return nil
}

// ValidateHTTPURLs проверяет, что каждый URL абсолютный и использует http или https
func (v *Validator) ValidateHTTPURLs(urls []string, fieldName string) error {
	for i, u := range urls {
		if !isHTTPURL(u) {
			return invalid("%s[%d] must be an absolute http(s) URL", fieldName, i)
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\n\r") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// ValidateEnum проверяет значение на соответствие enum
func (v *Validator) ValidateEnum(value string, allowedValues []string, fieldName string) error {
	if value == "" {
		return invalid("%s is required", fieldName)
	}

	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}

	return invalid("invalid %s: %s, allowed values: %v", fieldName, value, allowedValues)
}

// ValidateStringLength проверяет длину строки в символах
func (v *Validator) ValidateStringLength(value, fieldName string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return invalid("%s must be at least %d characters, got: %d", fieldName, min, length)
	}
	if max > 0 && length > max {
		return invalid("%s must not exceed %d characters, got: %d", fieldName, max, length)
	}
	return nil
}

// ValidateUUID проверяет формат UUID
func (v *Validator) ValidateUUID(id string, fieldName string) error {
	if id == "" {
		return invalid("%s is required", fieldName)
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("invalid %s format", fieldName)
	}
	return nil
}

// ValidateDateRange проверяет, что конец интервала строго позже начала
func (v *Validator) ValidateDateRange(start, end time.Time, fieldName string) error {
	if start.IsZero() || end.IsZero() {
		return invalid("%s requires both start and end dates", fieldName)
	}
	if !end.After(start) {
		return invalid("%s end date must be after start date", fieldName)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return apperrors.New(apperrors.ErrValidation, "invalid input").WithDetails(fmt.Sprintf(format, args...))
}
