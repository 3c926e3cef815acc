package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"kalprint/internal/database"
	"kalprint/internal/models"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type serviceRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Description    string  `json:"description" validate:"max=500"`
	Category       string  `json:"category" validate:"max=100"`
	BasePrice      float64 `json:"base_price" validate:"gte=0"`
	PriceRange     string  `json:"price_range" validate:"max=100"`
	IsActive       *bool   `json:"is_active"`
	ImageURL       string  `json:"image_url" validate:"omitempty,url"`
	ProcessingTime string  `json:"processing_time" validate:"max=100"`
}

type productRequest struct {
	Name           string            `json:"name" validate:"required,max=100"`
	Description    string            `json:"description" validate:"max=500"`
	Price          float64           `json:"price" validate:"gte=0"`
	Unit           string            `json:"unit" validate:"max=50"`
	MinQuantity    int               `json:"min_quantity" validate:"gte=0"`
	IsActive       *bool             `json:"is_active"`
	Specifications map[string]string `json:"specifications"`
}

type settingRequest struct {
	Value       string `json:"value" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

type statusRequest struct {
	Status   string `json:"status" validate:"required"`
	Response string `json:"response" validate:"max=2000"`
}

type broadcastRequest struct {
	Title               string `json:"title" validate:"required,max=200"`
	Content             string `json:"content" validate:"required,max=4000"`
	IncludeBusinessInfo bool   `json:"include_business_info"`
}

func (s *Server) handleDashboard(c echo.Context) error {
	stats := echo.Map{}

	if orders, err := s.orders.List(""); err == nil {
		pending := 0
		for _, o := range orders {
			if o.Status == models.OrderStatusPending {
				pending++
			}
		}
		stats["total_orders"] = len(orders)
		stats["pending_orders"] = pending
	}
	if schedules, err := s.schedules.List(string(models.ScheduleStatusPending)); err == nil {
		stats["pending_schedules"] = len(schedules)
	}
	if messages, err := s.messages.List(string(models.MessageStatusPending)); err == nil {
		stats["pending_messages"] = len(messages)
	}
	if count, err := s.users.Count(); err == nil {
		stats["known_users"] = count
	}
	if services, err := s.services.List(true); err == nil {
		stats["active_services"] = len(services)
	}

	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListServices(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	services, err := s.services.List(activeOnly)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, services)
}

func (s *Server) handleGetService(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	service, err := s.services.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, service)
}

func (s *Server) handleCreateService(c echo.Context) error {
	var req serviceRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	service := serviceFromRequest(req)
	if err := s.services.Create(&service); err != nil {
		return s.internalError(c, err)
	}

	s.logger.Info("service created", zap.Int64("service_id", service.ID), zap.String("name", service.Name))
	return c.JSON(http.StatusCreated, service)
}

func (s *Server) handleUpdateService(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req serviceRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	service := serviceFromRequest(req)
	service.ID = id
	if err := s.services.Update(service); err != nil {
		if errors.Is(err, database.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleDeleteService(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := s.services.Delete(id); err != nil {
		if errors.Is(err, database.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return s.internalError(c, err)
	}

	s.logger.Info("service deleted", zap.Int64("service_id", id))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleListProducts(c echo.Context) error {
	serviceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	products, err := s.services.ProductsByService(serviceID, false)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (s *Server) handleCreateProduct(c echo.Context) error {
	serviceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if _, err := s.services.GetByID(serviceID); err != nil {
		if errors.Is(err, database.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return s.internalError(c, err)
	}

	var req productRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	product := productFromRequest(req)
	product.ServiceID = serviceID
	if err := s.services.CreateProduct(&product); err != nil {
		return s.internalError(c, err)
	}

	s.logger.Info("product created", zap.Int64("product_id", product.ID), zap.Int64("service_id", serviceID))
	return c.JSON(http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	existing, err := s.services.GetProduct(id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return s.internalError(c, err)
	}

	var req productRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	product := productFromRequest(req)
	product.ID = id
	product.ServiceID = existing.ServiceID
	if err := s.services.UpdateProduct(product); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleDeleteProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := s.services.DeleteProduct(id); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleListSettings(c echo.Context) error {
	settings, err := s.settings.List()
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateSetting(c echo.Context) error {
	key := c.Param("key")

	var req settingRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if err := s.settings.Set(key, req.Value, req.Description); err != nil {
		return s.internalError(c, err)
	}

	s.logger.Info("setting updated", zap.String("key", key))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleListOrders(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" {
		if _, ok := parseOrderStatus(status); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
		}
	}

	orders, err := s.orders.List(status)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) handleGetOrder(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	order, err := s.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (s *Server) handleUpdateOrderStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req statusRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, ok := parseOrderStatus(req.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
	}

	if err := s.orders.UpdateStatus(id, status); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleListSchedules(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" {
		if _, ok := parseScheduleStatus(status); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown schedule status"})
		}
	}

	schedules, err := s.schedules.List(status)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (s *Server) handleUpdateScheduleStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req statusRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, ok := parseScheduleStatus(req.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown schedule status"})
	}

	if err := s.schedules.UpdateStatus(id, status); err != nil {
		if errors.Is(err, database.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleListMessages(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" {
		if _, ok := parseMessageStatus(status); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown message status"})
		}
	}

	messages, err := s.messages.List(status)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (s *Server) handleGetMessage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	msg, err := s.messages.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (s *Server) handleUpdateMessageStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req statusRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, ok := parseMessageStatus(req.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown message status"})
	}

	if err := s.messages.UpdateStatus(id, status, req.Response); err != nil {
		if errors.Is(err, database.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleBroadcast(c echo.Context) error {
	var req broadcastRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if !s.notifier.Broadcast(req.Title, req.Content, req.IncludeBusinessInfo) {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "broadcast failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.New("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	return nil
}

func (s *Server) internalError(c echo.Context, err error) error {
	s.logger.Error("request failed",
		zap.Error(err),
		zap.String("path", c.Path()),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func paramID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func serviceFromRequest(req serviceRequest) models.Service {
	service := models.Service{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		BasePrice:      req.BasePrice,
		PriceRange:     req.PriceRange,
		IsActive:       true,
		ProcessingTime: req.ProcessingTime,
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	if req.ImageURL != "" {
		service.ImageURL = null.StringFrom(req.ImageURL)
	}
	return service
}

func productFromRequest(req productRequest) models.Product {
	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		MinQuantity: req.MinQuantity,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.MinQuantity == 0 {
		product.MinQuantity = 1
	}
	if len(req.Specifications) > 0 {
		if raw, err := encodeSpecs(req.Specifications); err == nil {
			product.Specifications = null.StringFrom(raw)
		}
	}
	return product
}

func encodeSpecs(specs map[string]string) (string, error) {
	raw, err := json.Marshal(specs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func parseOrderStatus(raw string) (models.OrderStatus, bool) {
	switch models.OrderStatus(raw) {
	case models.OrderStatusPending, models.OrderStatusProcessing,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
		return models.OrderStatus(raw), true
	}
	return "", false
}

func parseScheduleStatus(raw string) (models.ScheduleStatus, bool) {
	switch models.ScheduleStatus(raw) {
	case models.ScheduleStatusPending, models.ScheduleStatusConfirmed,
		models.ScheduleStatusCompleted, models.ScheduleStatusCancelled:
		return models.ScheduleStatus(raw), true
	}
	return "", false
}

func parseMessageStatus(raw string) (models.MessageStatus, bool) {
	switch models.MessageStatus(raw) {
	case models.MessageStatusPending, models.MessageStatusResponded,
		models.MessageStatusClosed:
		return models.MessageStatus(raw), true
	}
	return "", false
}
