package operator

import (
	"database/sql"
	"time"
)

// Operator is a bot user who looks up and registers customers.
// Only preferences are stored; dialogs themselves are never persisted.
type Operator struct {
	ID                 int64
	TelegramID         int64
	DefaultManagerID   sql.NullString // Manager preselected for the conversion inline query
	DefaultManagerName sql.NullString
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
