package web

import (
	"context"
	"net/http"

	"kalprint/internal/bot"
	"kalprint/internal/config"
	"kalprint/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Stores consumed by the dashboard, implemented by internal/database.

type ServiceStore interface {
	List(activeOnly bool) ([]models.Service, error)
	GetByID(serviceID int64) (models.Service, error)
	Create(service *models.Service) error
	Update(service models.Service) error
	Delete(serviceID int64) error
	ProductsByService(serviceID int64, activeOnly bool) ([]models.Product, error)
	GetProduct(productID int64) (models.Product, error)
	CreateProduct(product *models.Product) error
	UpdateProduct(product models.Product) error
	DeleteProduct(productID int64) error
}

type OrderStore interface {
	Create(order *models.Order) error
	GetByID(orderID int64) (models.Order, error)
	List(status string) ([]models.Order, error)
	UpdateStatus(orderID int64, status models.OrderStatus) error
}

type ScheduleStore interface {
	Create(schedule *models.Schedule) error
	GetByID(scheduleID int64) (models.Schedule, error)
	List(status string) ([]models.Schedule, error)
	UpdateStatus(scheduleID int64, status models.ScheduleStatus) error
}

type MessageStore interface {
	Create(msg *models.DirectMessage) error
	GetByID(messageID int64) (models.DirectMessage, error)
	List(status string) ([]models.DirectMessage, error)
	UpdateStatus(messageID int64, status models.MessageStatus, response string) error
}

type SettingsStore interface {
	List() ([]models.Setting, error)
	Get(key string) (models.Setting, error)
	Set(key, value, description string) error
}

type UserStore interface {
	Count() (int, error)
}

// Server is the admin dashboard and public JSON API. All responses are
// JSON; admin routes sit behind a signed session cookie.
type Server struct {
	echo      *echo.Echo
	logger    *zap.Logger
	cfg       config.Web
	services  ServiceStore
	orders    OrderStore
	schedules ScheduleStore
	messages  MessageStore
	settings  SettingsStore
	users     UserStore
	notifier  *bot.Notifier
	validate  *validator.Validate
}

func NewServer(
	logger *zap.Logger,
	cfg config.Web,
	services ServiceStore,
	orders OrderStore,
	schedules ScheduleStore,
	messages MessageStore,
	settings SettingsStore,
	users UserStore,
	notifier *bot.Notifier,
) *Server {
	s := &Server{
		echo:      echo.New(),
		logger:    logger,
		cfg:       cfg,
		services:  services,
		orders:    orders,
		schedules: schedules,
		messages:  messages,
		settings:  settings,
		users:     users,
		notifier:  notifier,
		validate:  validator.New(),
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(echosession.Middleware(sessions.NewCookieStore([]byte(cfg.SecretKey))))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	s.echo.POST("/admin/login", s.handleLogin)
	s.echo.POST("/admin/logout", s.handleLogout)

	admin := s.echo.Group("/admin", s.requireAdmin)
	admin.GET("/dashboard", s.handleDashboard)

	admin.GET("/services", s.handleListServices)
	admin.POST("/services", s.handleCreateService)
	admin.GET("/services/:id", s.handleGetService)
	admin.PUT("/services/:id", s.handleUpdateService)
	admin.DELETE("/services/:id", s.handleDeleteService)

	admin.GET("/services/:id/products", s.handleListProducts)
	admin.POST("/services/:id/products", s.handleCreateProduct)
	admin.PUT("/products/:id", s.handleUpdateProduct)
	admin.DELETE("/products/:id", s.handleDeleteProduct)

	admin.GET("/settings", s.handleListSettings)
	admin.PUT("/settings/:key", s.handleUpdateSetting)

	admin.GET("/orders", s.handleListOrders)
	admin.GET("/orders/:id", s.handleGetOrder)
	admin.PUT("/orders/:id/status", s.handleUpdateOrderStatus)

	admin.GET("/schedules", s.handleListSchedules)
	admin.PUT("/schedules/:id/status", s.handleUpdateScheduleStatus)

	admin.GET("/messages", s.handleListMessages)
	admin.GET("/messages/:id", s.handleGetMessage)
	admin.PUT("/messages/:id/status", s.handleUpdateMessageStatus)

	admin.POST("/broadcast", s.handleBroadcast)

	api := s.echo.Group("/api")
	api.GET("/services", s.handlePublicServices)
	api.GET("/products/:service_id", s.handlePublicProducts)
	api.GET("/settings/:key", s.handlePublicSetting)
	api.POST("/order", s.handlePublicOrder)
	api.POST("/schedule", s.handlePublicSchedule)
	api.POST("/message", s.handlePublicMessage)
}

// Start blocks serving HTTP until Shutdown or a listen error.
func (s *Server) Start(addr string) error {
	s.logger.Info("web server starting", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
