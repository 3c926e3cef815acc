package web

import (
	"errors"
	"net/http"
	"strconv"

	"kalprint/internal/database"
	"kalprint/internal/models"
	"kalprint/internal/validate"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Settings exposed without authentication. Everything else stays private.
var publicSettingKeys = map[string]bool{
	"welcome_message": true,
	"business_hours":  true,
}

type publicOrderRequest struct {
	CustomerName string `json:"customer_name"`
	CompanyName  string `json:"company_name"`
	ProductType  string `json:"product_type"`
	Quantity     string `json:"quantity"`
	DeliveryDate string `json:"delivery_date"`
	ContactInfo  string `json:"contact_info"`
}

type publicScheduleRequest struct {
	CustomerName      string `json:"customer_name"`
	ContactInfo       string `json:"contact_info"`
	PreferredDatetime string `json:"preferred_datetime"`
}

type publicMessageRequest struct {
	CustomerName string `json:"customer_name"`
	ContactInfo  string `json:"contact_info"`
	MessageText  string `json:"message_text"`
}

func (s *Server) handlePublicServices(c echo.Context) error {
	services, err := s.services.List(true)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, services)
}

func (s *Server) handlePublicProducts(c echo.Context) error {
	serviceID, err := strconv.ParseInt(c.Param("service_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	products, err := s.services.ProductsByService(serviceID, true)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (s *Server) handlePublicSetting(c echo.Context) error {
	key := c.Param("key")
	if !publicSettingKeys[key] {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "setting not found"})
	}

	setting, err := s.settings.Get(key)
	if err != nil {
		if errors.Is(err, database.ErrSettingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "setting not found"})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"key": setting.Key, "value": setting.Value})
}

// handlePublicOrder accepts an order submitted outside Telegram. Input
// passes through the same validators the bot conversation uses, so both
// channels enforce identical rules.
func (s *Server) handlePublicOrder(c echo.Context) error {
	var req publicOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	name, err := validate.Name(req.CustomerName)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "customer_name"})
	}

	company := ""
	if req.CompanyName != "" {
		company, err = validate.CompanyName(req.CompanyName)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "company_name"})
		}
	}

	services, err := s.services.List(true)
	if err != nil {
		return s.internalError(c, err)
	}
	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = svc.Name
	}
	productType, err := validate.ServiceSelection(req.ProductType, names)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "product_type"})
	}

	quantity, err := validate.Quantity(req.Quantity)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "quantity"})
	}

	deliveryDate, err := validate.DeliveryDate(req.DeliveryDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "delivery_date"})
	}

	contact, err := validate.ContactInfo(req.ContactInfo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "contact_info"})
	}

	order := models.Order{
		CustomerName: name,
		ProductType:  productType,
		Quantity:     quantity,
		DeliveryDate: deliveryDate,
		ContactInfo:  contact,
		Status:       models.OrderStatusPending,
	}
	if company != "" {
		order.CompanyName = null.StringFrom(company)
	}

	if err := s.orders.Create(&order); err != nil {
		return s.internalError(c, err)
	}

	s.notifier.NotifyNewOrder(order)
	s.logger.Info("order received via web", zap.String("reference", order.Reference))
	return c.JSON(http.StatusCreated, order)
}

func (s *Server) handlePublicSchedule(c echo.Context) error {
	var req publicScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	name, err := validate.Name(req.CustomerName)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "customer_name"})
	}

	contact, err := validate.ContactInfo(req.ContactInfo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "contact_info"})
	}

	preferred, err := validate.DatetimePreference(req.PreferredDatetime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "preferred_datetime"})
	}

	schedule := models.Schedule{
		CustomerName:      name,
		ContactInfo:       contact,
		PreferredDatetime: preferred,
		Status:            models.ScheduleStatusPending,
	}

	if err := s.schedules.Create(&schedule); err != nil {
		return s.internalError(c, err)
	}

	s.notifier.NotifyNewSchedule(schedule)
	s.logger.Info("schedule received via web", zap.Int64("schedule_id", schedule.ID))
	return c.JSON(http.StatusCreated, schedule)
}

func (s *Server) handlePublicMessage(c echo.Context) error {
	var req publicMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	name, err := validate.Name(req.CustomerName)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "customer_name"})
	}

	contact, err := validate.ContactInfo(req.ContactInfo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "contact_info"})
	}

	text, err := validate.MessageText(req.MessageText)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "message_text"})
	}

	msg := models.DirectMessage{
		CustomerName: name,
		ContactInfo:  contact,
		MessageText:  text,
		Status:       models.MessageStatusPending,
	}

	if err := s.messages.Create(&msg); err != nil {
		return s.internalError(c, err)
	}

	s.notifier.NotifyNewMessage(msg)
	s.logger.Info("message received via web", zap.Int64("message_id", msg.ID))
	return c.JSON(http.StatusCreated, msg)
}
