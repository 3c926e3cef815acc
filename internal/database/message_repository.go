package database

import (
	"database/sql"
	"errors"

	"kalprint/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository persists direct customer messages.
type MessageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMessageRepository(db *sqlx.DB, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MessageRepository) Create(msg *models.DirectMessage) error {
	if msg.Status == "" {
		msg.Status = models.MessageStatusPending
	}

	query := `
        INSERT INTO messages (customer_name, contact_info, message_text, status, telegram_user_id)
        VALUES (?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(
		query,
		msg.CustomerName,
		msg.ContactInfo,
		msg.MessageText,
		msg.Status,
		msg.TelegramUserID,
	)
	if err != nil {
		r.logger.Error("failed to create message",
			zap.Error(err),
			zap.String("customer_name", msg.CustomerName),
		)
		return err
	}

	msg.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	r.logger.Info("message created", zap.Int64("message_id", msg.ID))
	return nil
}

func (r *MessageRepository) GetByID(messageID int64) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.Get(&msg, `SELECT * FROM messages WHERE id = ?`, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DirectMessage{}, ErrMessageNotFound
		}
		r.logger.Error("failed to get message", zap.Error(err), zap.Int64("message_id", messageID))
		return models.DirectMessage{}, err
	}
	return msg, nil
}

// List returns messages newest first, optionally filtered by status.
func (r *MessageRepository) List(status string) ([]models.DirectMessage, error) {
	builder := sq.Select("*").From("messages").OrderBy("created_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	messages := []models.DirectMessage{}
	if err := r.db.Select(&messages, query, args...); err != nil {
		r.logger.Error("failed to list messages", zap.Error(err), zap.String("status", status))
		return nil, err
	}
	return messages, nil
}

// UpdateStatus sets the handling status and, when non-empty, records the
// admin's response text.
func (r *MessageRepository) UpdateStatus(messageID int64, status models.MessageStatus, response string) error {
	var resp null.String
	if response != "" {
		resp = null.StringFrom(response)
	}

	res, err := r.db.Exec(`UPDATE messages SET status = ?, response = ? WHERE id = ?`, status, resp, messageID)
	if err != nil {
		r.logger.Error("failed to update message status",
			zap.Error(err),
			zap.Int64("message_id", messageID),
		)
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
