package database

import (
	"database/sql"
	"errors"

	"kalprint/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository stores arbitrary admin-editable key/value pairs.
type SettingsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSettingsRepository(db *sqlx.DB, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SettingsRepository) Get(key string) (models.Setting, error) {
	var setting models.Setting
	query := `SELECT setting_key, setting_value, description, updated_at FROM admin_settings WHERE setting_key = ?`

	err := r.db.Get(&setting, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Setting{}, ErrSettingNotFound
		}
		r.logger.Error("failed to get setting", zap.Error(err), zap.String("key", key))
		return models.Setting{}, err
	}
	return setting, nil
}

// GetValue returns the setting value or the given default when absent.
func (r *SettingsRepository) GetValue(key, def string) string {
	setting, err := r.Get(key)
	if err != nil {
		return def
	}
	return setting.Value
}

func (r *SettingsRepository) Set(key, value, description string) error {
	query := `
        INSERT INTO admin_settings (setting_key, setting_value, description)
        VALUES (?, ?, ?)
        ON CONFLICT (setting_key) DO UPDATE SET
            setting_value = excluded.setting_value,
            updated_at = CURRENT_TIMESTAMP
    `

	_, err := r.db.Exec(query, key, value, description)
	if err != nil {
		r.logger.Error("failed to set setting", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

func (r *SettingsRepository) List() ([]models.Setting, error) {
	settings := []models.Setting{}
	query := `SELECT setting_key, setting_value, description, updated_at FROM admin_settings ORDER BY setting_key`

	if err := r.db.Select(&settings, query); err != nil {
		r.logger.Error("failed to list settings", zap.Error(err))
		return nil, err
	}
	return settings, nil
}
