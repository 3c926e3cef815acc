package models

import (
	"encoding/json"
	"time"

	"github.com/aarondl/null/v8"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "Pending"
	ScheduleStatusConfirmed ScheduleStatus = "Confirmed"
	ScheduleStatusCompleted ScheduleStatus = "Completed"
	ScheduleStatusCancelled ScheduleStatus = "Cancelled"
)

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "Pending"
	MessageStatusResponded MessageStatus = "Responded"
	MessageStatusClosed    MessageStatus = "Closed"
)

// User is a Telegram user known to the bot. Created on first contact,
// last_active bumped on every interaction.
type User struct {
	ID             int64       `db:"id" json:"id"`
	TelegramUserID int64       `db:"telegram_user_id" json:"telegram_user_id"`
	Username       null.String `db:"username" json:"username"`
	FirstName      null.String `db:"first_name" json:"first_name"`
	LastName       null.String `db:"last_name" json:"last_name"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	LastActive     time.Time   `db:"last_active" json:"last_active"`
}

// Service is a catalog entry shown to customers and managed from the
// admin dashboard.
type Service struct {
	ID             int64       `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Description    string      `db:"description" json:"description"`
	Category       string      `db:"category" json:"category"`
	BasePrice      float64     `db:"base_price" json:"base_price"`
	PriceRange     string      `db:"price_range" json:"price_range"`
	IsActive       bool        `db:"is_active" json:"is_active"`
	ImageURL       null.String `db:"image_url" json:"image_url,omitempty"`
	ProcessingTime string      `db:"processing_time" json:"processing_time"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Product is a concrete item sold under a service. Deleted together
// with its service.
type Product struct {
	ID             int64       `db:"id" json:"id"`
	ServiceID      int64       `db:"service_id" json:"service_id"`
	Name           string      `db:"name" json:"name"`
	Description    string      `db:"description" json:"description"`
	Price          float64     `db:"price" json:"price"`
	Unit           string      `db:"unit" json:"unit"`
	MinQuantity    int         `db:"min_quantity" json:"min_quantity"`
	IsActive       bool        `db:"is_active" json:"is_active"`
	Specifications null.String `db:"specifications" json:"-"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Specs decodes the free-form specification map stored as JSON.
func (p Product) Specs() map[string]string {
	specs := map[string]string{}
	if p.Specifications.Valid && p.Specifications.String != "" {
		_ = json.Unmarshal([]byte(p.Specifications.String), &specs)
	}
	return specs
}

// Order is a placed print order. The service is stored as the validated
// catalog label, not a foreign key; only the status changes after creation.
type Order struct {
	ID             int64       `db:"id" json:"id"`
	Reference      string      `db:"reference" json:"reference"`
	CustomerName   string      `db:"customer_name" json:"customer_name"`
	CompanyName    null.String `db:"company_name" json:"company_name,omitempty"`
	ProductType    string      `db:"product_type" json:"product_type"`
	Quantity       int         `db:"quantity" json:"quantity"`
	DeliveryDate   string      `db:"delivery_date" json:"delivery_date"`
	ContactInfo    string      `db:"contact_info" json:"contact_info"`
	Status         OrderStatus `db:"order_status" json:"status"`
	TelegramUserID null.Int64  `db:"telegram_user_id" json:"telegram_user_id,omitempty"`
	Notes          null.String `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Schedule is a consultation request. PreferredDatetime is loosely
// validated text and may carry a "will confirm" qualifier.
type Schedule struct {
	ID                int64          `db:"id" json:"id"`
	CustomerName      string         `db:"customer_name" json:"customer_name"`
	ContactInfo       string         `db:"contact_info" json:"contact_info"`
	PreferredDatetime string         `db:"preferred_datetime" json:"preferred_datetime"`
	Status            ScheduleStatus `db:"status" json:"status"`
	TelegramUserID    null.Int64     `db:"telegram_user_id" json:"telegram_user_id,omitempty"`
	Notes             null.String    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// DirectMessage is a free-text message from a customer to the business.
type DirectMessage struct {
	ID             int64         `db:"id" json:"id"`
	CustomerName   string        `db:"customer_name" json:"customer_name"`
	ContactInfo    string        `db:"contact_info" json:"contact_info"`
	MessageText    string        `db:"message_text" json:"message_text"`
	Status         MessageStatus `db:"status" json:"status"`
	Response       null.String   `db:"response" json:"response,omitempty"`
	TelegramUserID null.Int64    `db:"telegram_user_id" json:"telegram_user_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// Setting is an arbitrary admin-editable key/value pair.
type Setting struct {
	Key         string    `db:"setting_key" json:"key"`
	Value       string    `db:"setting_value" json:"value"`
	Description string    `db:"description" json:"description"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Incoming is one text message received from a Telegram user.
type Incoming struct {
	ChatID    int64
	Text      string
	Username  string
	FirstName string
	LastName  string
}

// FullName joins the sender's first and last name.
func (in Incoming) FullName() string {
	if in.LastName == "" {
		return in.FirstName
	}
	return in.FirstName + " " + in.LastName
}

// CallbackQuery is one inline-button press.
type CallbackQuery struct {
	ID       string
	UserID   int64
	UserName string
	ChatID   int64
	Data     string
}
