package database

import (
	"database/sql"
	"errors"

	"kalprint/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleRepository persists consultation requests.
type ScheduleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewScheduleRepository(db *sqlx.DB, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ScheduleRepository) Create(schedule *models.Schedule) error {
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusPending
	}

	query := `
        INSERT INTO schedules (customer_name, contact_info, preferred_datetime, status, telegram_user_id, notes)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(
		query,
		schedule.CustomerName,
		schedule.ContactInfo,
		schedule.PreferredDatetime,
		schedule.Status,
		schedule.TelegramUserID,
		schedule.Notes,
	)
	if err != nil {
		r.logger.Error("failed to create schedule",
			zap.Error(err),
			zap.String("customer_name", schedule.CustomerName),
		)
		return err
	}

	schedule.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	r.logger.Info("schedule created", zap.Int64("schedule_id", schedule.ID))
	return nil
}

func (r *ScheduleRepository) GetByID(scheduleID int64) (models.Schedule, error) {
	var schedule models.Schedule
	err := r.db.Get(&schedule, `SELECT * FROM schedules WHERE id = ?`, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Schedule{}, ErrScheduleNotFound
		}
		r.logger.Error("failed to get schedule", zap.Error(err), zap.Int64("schedule_id", scheduleID))
		return models.Schedule{}, err
	}
	return schedule, nil
}

// List returns schedules newest first, optionally filtered by status.
func (r *ScheduleRepository) List(status string) ([]models.Schedule, error) {
	builder := sq.Select("*").From("schedules").OrderBy("created_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	schedules := []models.Schedule{}
	if err := r.db.Select(&schedules, query, args...); err != nil {
		r.logger.Error("failed to list schedules", zap.Error(err), zap.String("status", status))
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepository) UpdateStatus(scheduleID int64, status models.ScheduleStatus) error {
	res, err := r.db.Exec(`UPDATE schedules SET status = ? WHERE id = ?`, status, scheduleID)
	if err != nil {
		r.logger.Error("failed to update schedule status",
			zap.Error(err),
			zap.Int64("schedule_id", scheduleID),
		)
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
