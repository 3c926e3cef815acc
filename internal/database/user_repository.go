package database

import (
	"database/sql"
	"errors"

	"kalprint/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UserRepository tracks the Telegram users who have talked to the bot.
type UserRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert creates the user on first contact and refreshes the profile
// fields and last_active on every later interaction.
func (r *UserRepository) Upsert(user models.User) error {
	query := `
        INSERT INTO users (telegram_user_id, username, first_name, last_name)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (telegram_user_id) DO UPDATE SET
            username = excluded.username,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            last_active = CURRENT_TIMESTAMP
    `

	_, err := r.db.Exec(query, user.TelegramUserID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		r.logger.Error("failed to upsert user",
			zap.Error(err),
			zap.Int64("telegram_user_id", user.TelegramUserID),
		)
		return err
	}

	return nil
}

// GetByTelegramID returns the zero User when the id is unknown.
func (r *UserRepository) GetByTelegramID(telegramUserID int64) (models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE telegram_user_id = ?`

	err := r.db.Get(&user, query, telegramUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, nil
		}
		r.logger.Error("failed to get user",
			zap.Error(err),
			zap.Int64("telegram_user_id", telegramUserID),
		)
		return models.User{}, err
	}

	return user, nil
}

// Count returns the number of users the bot has ever seen.
func (r *UserRepository) Count() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users`)
	if err != nil {
		r.logger.Error("failed to count users", zap.Error(err))
		return 0, err
	}
	return count, nil
}
