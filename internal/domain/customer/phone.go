package customer

import (
	"regexp"
	"strings"
)

// Phone is a normalized subscriber number: 11 digits, always starting with 7.
type Phone string

// PhoneFormatsHint lists the input shapes accepted by NormalizePhone.
const PhoneFormatsHint = "Допустимые форматы: 9999999999, +79999999999, 79999999999, 89999999999"

var (
	phoneJunk       = regexp.MustCompile(`[^\d+]`)
	phoneDomestic   = regexp.MustCompile(`^\d{10}$`)
	phonePlusSeven  = regexp.MustCompile(`^\+7\d{10}$`)
	phoneSeven      = regexp.MustCompile(`^7\d{10}$`)
	phoneEightTrunk = regexp.MustCompile(`^8\d{10}$`)
)

// NormalizePhone converts operator input into the canonical Phone form.
// Only the shapes listed in PhoneFormatsHint are accepted, nothing is partially normalized.
func NormalizePhone(raw string) (Phone, error) {
	cleaned := phoneJunk.ReplaceAllString(raw, "")

	switch {
	case phoneDomestic.MatchString(cleaned):
		return Phone("7" + cleaned), nil
	case phonePlusSeven.MatchString(cleaned):
		return Phone(strings.TrimPrefix(cleaned, "+")), nil
	case phoneSeven.MatchString(cleaned):
		return Phone(cleaned), nil
	case phoneEightTrunk.MatchString(cleaned):
		return Phone("7" + cleaned[1:]), nil
	}

	return "", &FormatError{Field: FieldPhone, Reason: "Неверный формат номера телефона. " + PhoneFormatsHint}
}

func (p Phone) String() string {
	return string(p)
}
