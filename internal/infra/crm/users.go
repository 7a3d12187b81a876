package crm

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"crm_onboarding_bot/internal/domain/customer"
)

const (
	statusError          = "error"
	unknownRegisterError = "Неизвестная ошибка регистрации"
)

type lookupRequest struct {
	APIKey string `json:"api_key"`
	Limit  int    `json:"limit"`
	Phone  string `json:"phone"`
}

type lookupResponse struct {
	Meta struct {
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"meta"`
	Users []struct {
		CardNum flexString  `json:"card_num"`
		Name    string      `json:"name"`
		Balance flexString  `json:"balance"`
		AvgBill *flexString `json:"avgBill"`
	} `json:"users"`
}

type registerRequest struct {
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BDate     string `json:"bDate"`
	PromoCode string `json:"promoCode"`
	Token     string `json:"token"`
}

type registerResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	AndroidURL string `json:"androidUrl"`
	IOSURL     string `json:"iosUrl"`
	Details    *struct {
		Validation map[string]json.RawMessage `json:"validation"`
	} `json:"details"`
}

// Lookup searches customers by phone. An empty slice means the CRM does not know the number.
func (c *Client) Lookup(ctx context.Context, phone customer.Phone) ([]customer.Record, error) {
	var resp lookupResponse
	err := c.post(ctx, c.cfg.EndpointUsers, lookupRequest{
		APIKey: c.cfg.APIKey,
		Limit:  1,
		Phone:  phone.String(),
	}, &resp)
	if err != nil {
		return nil, err
	}

	records := make([]customer.Record, 0, len(resp.Users))
	for _, u := range resp.Users {
		record := customer.Record{
			CardNumber: string(u.CardNum),
			Name:       u.Name,
			Balance:    string(u.Balance),
		}
		if u.AvgBill != nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(string(*u.AvgBill)), 64); err == nil {
				record.AvgBill = &v
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// Register creates the customer. Rejections come back as *customer.CrmError: a complaint about
// the promo code alone makes it a promo code error, anything else a validation error.
func (c *Client) Register(ctx context.Context, draft customer.Draft) (*customer.RegistrationAck, error) {
	var resp registerResponse
	err := c.post(ctx, c.cfg.EndpointRegister, registerRequest{
		Phone:     draft.Phone.String(),
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		BDate:     draft.BirthDate.String(),
		PromoCode: draft.PromoCode,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status != statusError {
		return &customer.RegistrationAck{
			Status:     resp.Status,
			Message:    resp.Message,
			AndroidURL: resp.AndroidURL,
			IOSURL:     resp.IOSURL,
		}, nil
	}

	message := resp.Message
	if message == "" {
		message = unknownRegisterError
	}

	if resp.Details == nil || resp.Details.Validation == nil {
		return nil, &customer.CrmError{Kind: customer.KindUnknown, Message: message}
	}

	details := make(map[string][]string, len(resp.Details.Validation))
	for field, raw := range resp.Details.Validation {
		details[field] = complaints(raw)
	}

	if promo, ok := details[customer.FieldPromoCode]; ok && len(details) == 1 {
		return nil, &customer.CrmError{
			Kind:    customer.KindPromoCode,
			Message: strings.Join(promo, ", "),
			Details: details,
		}
	}
	return nil, &customer.CrmError{Kind: customer.KindValidation, Message: message, Details: details}
}

// complaints accepts a list of messages, a single message, or any other JSON value.
func complaints(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, complaints(nested[k])...)
		}
		return out
	}
	return []string{strings.TrimSpace(string(raw))}
}
