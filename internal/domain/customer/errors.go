package customer

import (
	"errors"
	"sort"
	"strings"
)

// Field names as they appear in CRM validation details.
const (
	FieldPhone     = "phone"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldBirthDate = "bDate"
	FieldPromoCode = "promoCode"
)

var (
	ErrInvalidFormat      = errors.New("invalid format")
	ErrPromoCodeRejected  = errors.New("promo code rejected")
	ErrValidationRejected = errors.New("validation rejected")
	ErrTransportFailure   = errors.New("crm transport failure")
	ErrAttemptsExhausted  = errors.New("attempts exhausted")
)

// FormatError is returned by the phone and date parsers. Reason is operator-facing text.
type FormatError struct {
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	return e.Reason
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// ErrorKind classifies CRM failures.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindValidation ErrorKind = "validation"
	KindPromoCode  ErrorKind = "promo_code"
	KindUnknown    ErrorKind = "unknown"
)

// CrmError is the error half of a CRM call result.
type CrmError struct {
	Kind    ErrorKind
	Message string
	// Details maps a draft field to the CRM's complaints about it. Only set for validation failures.
	Details map[string][]string
	Err     error
}

func (e *CrmError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *CrmError) Unwrap() error {
	return e.Err
}

func (e *CrmError) Is(target error) bool {
	switch target {
	case ErrPromoCodeRejected:
		return e.Kind == KindPromoCode
	case ErrValidationRejected:
		return e.Kind == KindValidation
	case ErrTransportFailure:
		return e.Kind == KindNetwork || e.Kind == KindUnknown
	}
	return false
}

// HasField reports whether the CRM complained about the given field.
func (e *CrmError) HasField(field string) bool {
	_, ok := e.Details[field]
	return ok
}

// OnlyPromoCode reports whether the promo code is the sole field the CRM rejected.
func (e *CrmError) OnlyPromoCode() bool {
	return len(e.Details) == 1 && e.HasField(FieldPromoCode)
}

// DetailLines renders every field complaint as "- field: msg1, msg2", fields sorted.
func (e *CrmError) DetailLines() []string {
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, "- "+f+": "+strings.Join(e.Details[f], ", "))
	}
	return lines
}
