package customer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 15, 13, 45, 0, 0, time.UTC)

func TestMinimumBirthDate(t *testing.T) {
	d := MinimumBirthDate(testNow)
	assert.Equal(t, "2006-06-14", d.String())
	assert.Equal(t, "14.06.2006", d.OperatorString())
}

func TestParseBirthDate(t *testing.T) {
	d, err := ParseBirthDate("25.12.2000", testNow)
	require.NoError(t, err)
	assert.Equal(t, "2000-12-25", d.String())
	assert.Equal(t, "25.12.2000", d.OperatorString())
}

func TestParseBirthDate_AgeBoundary(t *testing.T) {
	d, err := ParseBirthDate("14.06.2006", testNow)
	require.NoError(t, err)
	assert.True(t, d.Equal(MinimumBirthDate(testNow)))

	_, err = ParseBirthDate("15.06.2006", testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "старше 18 лет")
}

func TestParseBirthDate_Rejects(t *testing.T) {
	cases := map[string]string{
		"2000-12-25": "Неверный формат даты",
		"1.1.2000":   "Неверный формат даты",
		"":           "Неверный формат даты",
		"31.02.2000": "несуществующая дата",
		"00.01.2000": "несуществующая дата",
		"10.13.2000": "несуществующая дата",
	}
	for raw, reason := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseBirthDate(raw, testNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.Contains(t, err.Error(), reason)
		})
	}
}

func TestBirthDate_ZeroValue(t *testing.T) {
	var d BirthDate
	assert.True(t, d.IsZero())
	assert.Empty(t, d.String())
	assert.Empty(t, d.OperatorString())
}
