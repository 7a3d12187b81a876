package customer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrmError_Is(t *testing.T) {
	promo := &CrmError{Kind: KindPromoCode, Message: "Промокод не найден"}
	validation := &CrmError{Kind: KindValidation}
	network := &CrmError{Kind: KindNetwork, Err: errors.New("dial tcp: refused")}
	unknown := &CrmError{Kind: KindUnknown}

	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", promo), ErrPromoCodeRejected)
	assert.ErrorIs(t, validation, ErrValidationRejected)
	assert.ErrorIs(t, network, ErrTransportFailure)
	assert.ErrorIs(t, unknown, ErrTransportFailure)
	assert.NotErrorIs(t, promo, ErrValidationRejected)
	assert.NotErrorIs(t, validation, ErrTransportFailure)
}

func TestCrmError_Error(t *testing.T) {
	assert.Equal(t, "Ошибка HTTP: 502", (&CrmError{Kind: KindNetwork, Message: "Ошибка HTTP: 502"}).Error())
	assert.Equal(t, "timeout", (&CrmError{Kind: KindNetwork, Err: errors.New("timeout")}).Error())
	assert.Equal(t, "unknown", (&CrmError{Kind: KindUnknown}).Error())
}

func TestCrmError_Details(t *testing.T) {
	onlyPromo := &CrmError{Kind: KindValidation, Details: map[string][]string{
		FieldPromoCode: {"Промокод не найден"},
	}}
	assert.True(t, onlyPromo.OnlyPromoCode())
	assert.True(t, onlyPromo.HasField(FieldPromoCode))

	mixed := &CrmError{Kind: KindValidation, Details: map[string][]string{
		FieldPromoCode: {"Промокод не найден"},
		FieldFirstName: {"Слишком короткое", "Недопустимые символы"},
	}}
	assert.False(t, mixed.OnlyPromoCode())
	assert.True(t, mixed.HasField(FieldFirstName))
	assert.False(t, mixed.HasField(FieldBirthDate))
	assert.Equal(t, []string{
		"- firstName: Слишком короткое, Недопустимые символы",
		"- promoCode: Промокод не найден",
	}, mixed.DetailLines())

	assert.Empty(t, (&CrmError{Kind: KindValidation}).DetailLines())
}
