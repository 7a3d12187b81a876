package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	accepted := map[string]Phone{
		"9161234567":         "79161234567",
		"+79161234567":       "79161234567",
		"79161234567":        "79161234567",
		"89161234567":        "79161234567",
		"8 (916) 123-45-67":  "79161234567",
		" +7 916 123 45 67 ": "79161234567",
	}
	for raw, want := range accepted {
		t.Run(raw, func(t *testing.T) {
			got, err := NormalizePhone(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizePhone_Rejects(t *testing.T) {
	for _, raw := range []string{"", "12345", "69161234567", "+89161234567", "791612345678", "abc"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NormalizePhone(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.Contains(t, err.Error(), PhoneFormatsHint)

			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, FieldPhone, formatErr.Field)
		})
	}
}
