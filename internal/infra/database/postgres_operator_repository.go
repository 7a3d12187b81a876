package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crm_onboarding_bot/internal/domain/operator"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var ErrOperatorNotFound = fmt.Errorf("operator not found")

type PostgresOperatorRepository struct {
	db *sql.DB
}

func NewPostgresOperatorRepository(db *sql.DB) *PostgresOperatorRepository {
	return &PostgresOperatorRepository{db: db}
}

func (r *PostgresOperatorRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*operator.Operator, error) {
	query := `SELECT id, telegram_id, default_manager_id, default_manager_name, created_at, updated_at
               FROM operators WHERE telegram_id = $1`
	op := &operator.Operator{}
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(
		&op.ID, &op.TelegramID, &op.DefaultManagerID, &op.DefaultManagerName, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("error getting operator by Telegram ID: %w", err)
	}
	return op, nil
}

// SaveDefaultManager upserts the operator row keyed by telegram_id.
func (r *PostgresOperatorRepository) SaveDefaultManager(ctx context.Context, telegramID int64, managerID, managerName string) (*operator.Operator, error) {
	query := `INSERT INTO operators (telegram_id, default_manager_id, default_manager_name)
               VALUES ($1, $2, $3)
               ON CONFLICT (telegram_id) DO UPDATE
               SET default_manager_id = EXCLUDED.default_manager_id,
                   default_manager_name = EXCLUDED.default_manager_name,
                   updated_at = NOW()
               RETURNING id, telegram_id, default_manager_id, default_manager_name, created_at, updated_at`
	op := &operator.Operator{}
	err := r.db.QueryRowContext(ctx, query, telegramID, managerID, managerName).Scan(
		&op.ID, &op.TelegramID, &op.DefaultManagerID, &op.DefaultManagerName, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error saving default manager: %w", err)
	}
	return op, nil
}
