package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kalprint/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository persists customer print orders.
type OrderRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sqlx.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the order and fills in its id and public reference.
// The contact and date fields are expected to be pre-validated.
func (r *OrderRepository) Create(order *models.Order) error {
	if order.Reference == "" {
		order.Reference = newOrderReference()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	query := `
        INSERT INTO orders (
            reference, customer_name, company_name, product_type, quantity,
            delivery_date, contact_info, order_status, telegram_user_id, notes
        )
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(
		query,
		order.Reference,
		order.CustomerName,
		order.CompanyName,
		order.ProductType,
		order.Quantity,
		order.DeliveryDate,
		order.ContactInfo,
		order.Status,
		order.TelegramUserID,
		order.Notes,
	)
	if err != nil {
		r.logger.Error("failed to create order",
			zap.Error(err),
			zap.String("reference", order.Reference),
		)
		return err
	}

	order.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	r.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("reference", order.Reference),
		zap.String("product_type", order.ProductType),
	)
	return nil
}

func (r *OrderRepository) GetByID(orderID int64) (models.Order, error) {
	var order models.Order
	err := r.db.Get(&order, `SELECT * FROM orders WHERE id = ?`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Order{}, ErrOrderNotFound
		}
		r.logger.Error("failed to get order", zap.Error(err), zap.Int64("order_id", orderID))
		return models.Order{}, err
	}
	return order, nil
}

// List returns orders newest first, optionally filtered by status.
func (r *OrderRepository) List(status string) ([]models.Order, error) {
	builder := sq.Select("*").From("orders").OrderBy("created_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"order_status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := r.db.Select(&orders, query, args...); err != nil {
		r.logger.Error("failed to list orders", zap.Error(err), zap.String("status", status))
		return nil, err
	}
	return orders, nil
}

// UpdateStatus is the only mutation allowed on an order after creation.
func (r *OrderRepository) UpdateStatus(orderID int64, status models.OrderStatus) error {
	res, err := r.db.Exec(`UPDATE orders SET order_status = ? WHERE id = ?`, status, orderID)
	if err != nil {
		r.logger.Error("failed to update order status",
			zap.Error(err),
			zap.Int64("order_id", orderID),
			zap.String("status", string(status)),
		)
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	r.logger.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
	)
	return nil
}

func newOrderReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s", id[:8])
}
