package customer

import (
	"regexp"
	"strconv"
	"time"
)

// MinimumAgeYears is the youngest age a customer may be registered with.
const MinimumAgeYears = 18

const (
	canonicalDateLayout = "2006-01-02"
	operatorDateLayout  = "02.01.2006"
)

var operatorDatePattern = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)

// BirthDate is a real calendar date rendered as YYYY-MM-DD.
type BirthDate struct {
	t time.Time
}

// MinimumBirthDate returns the latest birth date allowed on the given day:
// today minus MinimumAgeYears years and one more day.
func MinimumBirthDate(now time.Time) BirthDate {
	boundary := now.AddDate(-MinimumAgeYears, 0, -1)
	return BirthDate{t: time.Date(boundary.Year(), boundary.Month(), boundary.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseBirthDate validates operator input in DD.MM.YYYY form and enforces the minimum age
// relative to now. The returned error is a *FormatError whose text is shown to the operator.
func ParseBirthDate(raw string, now time.Time) (BirthDate, error) {
	match := operatorDatePattern.FindStringSubmatch(raw)
	if match == nil {
		return BirthDate{}, &FormatError{
			Field:  FieldBirthDate,
			Reason: "Неверный формат даты. Используйте формат ДД.ММ.ГГГГ (например, 25.12.2000)",
		}
	}

	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return BirthDate{}, &FormatError{Field: FieldBirthDate, Reason: "Указана несуществующая дата"}
	}

	if t.After(MinimumBirthDate(now).t) {
		return BirthDate{}, &FormatError{Field: FieldBirthDate, Reason: "Клиент должен быть старше 18 лет"}
	}

	return BirthDate{t: t}, nil
}

// String renders the date in the canonical YYYY-MM-DD form used by the CRM.
func (d BirthDate) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(canonicalDateLayout)
}

// OperatorString renders the date the way operators type it (DD.MM.YYYY).
func (d BirthDate) OperatorString() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(operatorDateLayout)
}

func (d BirthDate) IsZero() bool {
	return d.t.IsZero()
}

func (d BirthDate) Equal(other BirthDate) bool {
	return d.t.Equal(other.t)
}
