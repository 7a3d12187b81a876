package crm

import (
	"context"
	"time"

	"crm_onboarding_bot/internal/domain/manager"
)

const managersLimit = 500

var bonusDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type managersResponse struct {
	Managers []struct {
		ID   flexString `json:"idManager"`
		Name string     `json:"managerName"`
	} `json:"managers"`
}

type bonusListRequest struct {
	APIKey    string `json:"api_key"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"dateEnd"`
	ManagerID string `json:"id_manager"`
}

type bonusListResponse struct {
	BonusList []struct {
		ID         flexString `json:"id_bonus"`
		Value      flexString `json:"value"`
		OrderPrice flexString `json:"order_price"`
		InvoiceNum flexString `json:"invoice_num"`
		Date       string     `json:"date"`
		IsDeleted  bool       `json:"isDeleted"`
	} `json:"bonus_list"`
}

func (c *Client) ListManagers(ctx context.Context) ([]manager.Manager, error) {
	var resp managersResponse
	err := c.post(ctx, c.cfg.EndpointManagers, map[string]any{
		"api.admin.key": c.cfg.APIKey,
		"limit":         managersLimit,
	}, &resp)
	if err != nil {
		return nil, err
	}

	managers := make([]manager.Manager, 0, len(resp.Managers))
	for _, m := range resp.Managers {
		managers = append(managers, manager.Manager{ID: string(m.ID), Name: m.Name})
	}
	return managers, nil
}

// ListBonuses returns the bonus ledger of one manager between from and to (YYYY-MM-DD).
func (c *Client) ListBonuses(ctx context.Context, managerID string, from, to string) ([]manager.Bonus, error) {
	var resp bonusListResponse
	err := c.post(ctx, c.cfg.EndpointBonusList, bonusListRequest{
		APIKey:    c.cfg.APIKey,
		DateStart: from,
		DateEnd:   to,
		ManagerID: managerID,
	}, &resp)
	if err != nil {
		return nil, err
	}

	bonuses := make([]manager.Bonus, 0, len(resp.BonusList))
	for _, b := range resp.BonusList {
		bonuses = append(bonuses, manager.Bonus{
			ID:         string(b.ID),
			Value:      string(b.Value),
			OrderPrice: string(b.OrderPrice),
			InvoiceNum: string(b.InvoiceNum),
			Date:       parseBonusDate(b.Date),
			IsDeleted:  b.IsDeleted,
		})
	}
	return bonuses, nil
}

func parseBonusDate(raw string) time.Time {
	for _, layout := range bonusDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
