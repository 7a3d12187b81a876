package manager

import (
	"context"
	"time"
)

// Manager is a CRM back-office user that customers are attributed to.
type Manager struct {
	ID   string
	Name string
}

// Bonus is one bonus-ledger operation recorded by a manager.
type Bonus struct {
	ID         string
	Value      string
	OrderPrice string
	InvoiceNum string
	Date       time.Time
	IsDeleted  bool
}

// OperationsStats summarises a manager's ledger for a period.
type OperationsStats struct {
	TotalOperations int `json:"total_operations"`
	Registrations   int `json:"registrations"`
	Usages          int `json:"usages"`
}

// WithStats is a manager together with the stats for the requested day.
type WithStats struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Stats OperationsStats `json:"stats"`
}

// Directory is the part of the CRM that exposes managers and their bonus ledger.
type Directory interface {
	ListManagers(ctx context.Context) ([]Manager, error)
	ListBonuses(ctx context.Context, managerID string, from, to string) ([]Bonus, error)
}

// StatsCache keeps computed stats per day. A miss is reported as found=false, nil error.
type StatsCache interface {
	Get(ctx context.Context, day string) ([]WithStats, bool, error)
	Set(ctx context.Context, day string, stats []WithStats, ttl time.Duration) error
}
