package operator

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Operator preferences.
type Repository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*Operator, error)
	// SaveDefaultManager creates the operator row if needed and stores the manager choice.
	SaveDefaultManager(ctx context.Context, telegramID int64, managerID, managerName string) (*Operator, error)
}
