package bot

import (
	"time"

	"kalprint/internal/config"
	"kalprint/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramClient is the outbound Telegram surface the bot needs.
type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendHTMLMessage(chatID int64, text string) error
	SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error
	SendHTMLMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error
	SendMessageWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendToChannel(channel string, text string) error

	// StartBot begins long polling and fans updates out on two channels:
	// plain text messages and inline-button callback queries.
	StartBot() (chan models.Incoming, chan models.CallbackQuery, error)
}

// Stores consumed by the bot, implemented by internal/database.

type OrderStore interface {
	Create(order *models.Order) error
}

type ScheduleStore interface {
	Create(schedule *models.Schedule) error
}

type MessageStore interface {
	Create(msg *models.DirectMessage) error
}

type UserStore interface {
	Upsert(user models.User) error
	Count() (int, error)
}

type CatalogStore interface {
	List(activeOnly bool) ([]models.Service, error)
}

type SettingsStore interface {
	GetValue(key, def string) string
}

// Service is the bot front-end: it owns the update loop and routes each
// update to the conversation flows or a menu action.
type Service struct {
	telegram  TelegramClient
	logger    *zap.Logger
	flows     *FlowManager
	sessions  SessionStore
	users     UserStore
	catalog   CatalogStore
	settings  SettingsStore
	notifier  *Notifier
	business  config.Business
	channel   string
	startedAt time.Time
}

// NewService wires the bot front-end together.
func NewService(
	telegram TelegramClient,
	logger *zap.Logger,
	flows *FlowManager,
	sessions SessionStore,
	users UserStore,
	catalog CatalogStore,
	settings SettingsStore,
	notifier *Notifier,
	business config.Business,
	channel string,
) *Service {
	return &Service{
		telegram:  telegram,
		logger:    logger,
		flows:     flows,
		sessions:  sessions,
		users:     users,
		catalog:   catalog,
		settings:  settings,
		notifier:  notifier,
		business:  business,
		channel:   channel,
		startedAt: time.Now(),
	}
}
