package database

import (
	"database/sql"
	"errors"

	"kalprint/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrProductNotFound = errors.New("product not found")
)

// ServiceRepository manages the service catalog and the products that
// hang off each service.
type ServiceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewServiceRepository(db *sqlx.DB, logger *zap.Logger) *ServiceRepository {
	return &ServiceRepository{
		db:     db,
		logger: logger,
	}
}

// List returns services ordered by name; activeOnly limits the result to
// the catalog the bot shows to customers.
func (r *ServiceRepository) List(activeOnly bool) ([]models.Service, error) {
	builder := sq.Select("*").From("services").OrderBy("name")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	services := []models.Service{}
	if err := r.db.Select(&services, query, args...); err != nil {
		r.logger.Error("failed to list services", zap.Error(err))
		return nil, err
	}
	return services, nil
}

// ActiveNames returns the names of active services, in catalog order.
func (r *ServiceRepository) ActiveNames() ([]string, error) {
	names := []string{}
	err := r.db.Select(&names, `SELECT name FROM services WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		r.logger.Error("failed to list active service names", zap.Error(err))
		return nil, err
	}
	return names, nil
}

func (r *ServiceRepository) GetByID(serviceID int64) (models.Service, error) {
	var service models.Service
	err := r.db.Get(&service, `SELECT * FROM services WHERE id = ?`, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Service{}, ErrServiceNotFound
		}
		r.logger.Error("failed to get service", zap.Error(err), zap.Int64("service_id", serviceID))
		return models.Service{}, err
	}
	return service, nil
}

func (r *ServiceRepository) GetByName(name string) (models.Service, error) {
	var service models.Service
	err := r.db.Get(&service, `SELECT * FROM services WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Service{}, ErrServiceNotFound
		}
		r.logger.Error("failed to get service by name", zap.Error(err), zap.String("name", name))
		return models.Service{}, err
	}
	return service, nil
}

func (r *ServiceRepository) Create(service *models.Service) error {
	query := `
        INSERT INTO services (name, description, category, base_price, price_range, is_active, image_url, processing_time)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(
		query,
		service.Name,
		service.Description,
		service.Category,
		service.BasePrice,
		service.PriceRange,
		service.IsActive,
		service.ImageURL,
		service.ProcessingTime,
	)
	if err != nil {
		r.logger.Error("failed to create service", zap.Error(err), zap.String("name", service.Name))
		return err
	}

	service.ID, err = res.LastInsertId()
	return err
}

func (r *ServiceRepository) Update(service models.Service) error {
	query := `
        UPDATE services
        SET name = ?, description = ?, category = ?, base_price = ?,
            price_range = ?, is_active = ?, image_url = ?, processing_time = ?,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `

	res, err := r.db.Exec(
		query,
		service.Name,
		service.Description,
		service.Category,
		service.BasePrice,
		service.PriceRange,
		service.IsActive,
		service.ImageURL,
		service.ProcessingTime,
		service.ID,
	)
	if err != nil {
		r.logger.Error("failed to update service", zap.Error(err), zap.Int64("service_id", service.ID))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// Delete removes a service together with its products.
func (r *ServiceRepository) Delete(serviceID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM products WHERE service_id = ?`, serviceID); err != nil {
		r.logger.Error("failed to delete service products", zap.Error(err), zap.Int64("service_id", serviceID))
		return err
	}

	res, err := tx.Exec(`DELETE FROM services WHERE id = ?`, serviceID)
	if err != nil {
		r.logger.Error("failed to delete service", zap.Error(err), zap.Int64("service_id", serviceID))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrServiceNotFound
	}

	return tx.Commit()
}

// ProductsByService returns the products under one service.
func (r *ServiceRepository) ProductsByService(serviceID int64, activeOnly bool) ([]models.Product, error) {
	builder := sq.Select("*").From("products").
		Where(sq.Eq{"service_id": serviceID}).
		OrderBy("name")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := r.db.Select(&products, query, args...); err != nil {
		r.logger.Error("failed to list products", zap.Error(err), zap.Int64("service_id", serviceID))
		return nil, err
	}
	return products, nil
}

func (r *ServiceRepository) GetProduct(productID int64) (models.Product, error) {
	var product models.Product
	err := r.db.Get(&product, `SELECT * FROM products WHERE id = ?`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		r.logger.Error("failed to get product", zap.Error(err), zap.Int64("product_id", productID))
		return models.Product{}, err
	}
	return product, nil
}

func (r *ServiceRepository) CreateProduct(product *models.Product) error {
	query := `
        INSERT INTO products (service_id, name, description, price, unit, min_quantity, is_active, specifications)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(
		query,
		product.ServiceID,
		product.Name,
		product.Description,
		product.Price,
		product.Unit,
		product.MinQuantity,
		product.IsActive,
		product.Specifications,
	)
	if err != nil {
		r.logger.Error("failed to create product", zap.Error(err), zap.String("name", product.Name))
		return err
	}

	product.ID, err = res.LastInsertId()
	return err
}

func (r *ServiceRepository) UpdateProduct(product models.Product) error {
	query := `
        UPDATE products
        SET name = ?, description = ?, price = ?, unit = ?, min_quantity = ?,
            is_active = ?, specifications = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `

	res, err := r.db.Exec(
		query,
		product.Name,
		product.Description,
		product.Price,
		product.Unit,
		product.MinQuantity,
		product.IsActive,
		product.Specifications,
		product.ID,
	)
	if err != nil {
		r.logger.Error("failed to update product", zap.Error(err), zap.Int64("product_id", product.ID))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ServiceRepository) DeleteProduct(productID int64) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, productID)
	if err != nil {
		r.logger.Error("failed to delete product", zap.Error(err), zap.Int64("product_id", productID))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
