package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"kalprint/internal/models"

	"github.com/aarondl/null/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Action is a decoded menu command.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionHelp
	ActionStatus
	ActionCancel
	ActionViewServices
	ActionPlaceOrder
	ActionSchedule
	ActionContact
	ActionChannel
)

// Menu button labels. They double as commands, so the decode table below
// must stay in sync with mainMenuKeyboard.
const (
	labelViewServices = "🏪 View Services"
	labelPlaceOrder   = "🛒 Place Order"
	labelSchedule     = "📅 Schedule Consultation"
	labelContact      = "💬 Contact Us"
	labelChannel      = "📢 Updates Channel"
	labelHelp         = "❓ Help & Info"
)

// decodeAction maps a text message to a menu action. Commands and menu
// button labels are both accepted.
func decodeAction(text string) Action {
	switch strings.TrimSpace(text) {
	case "/start":
		return ActionStart
	case "/help", labelHelp:
		return ActionHelp
	case "/status":
		return ActionStatus
	case "/cancel":
		return ActionCancel
	case labelViewServices:
		return ActionViewServices
	case labelPlaceOrder:
		return ActionPlaceOrder
	case labelSchedule:
		return ActionSchedule
	case labelContact:
		return ActionContact
	case labelChannel:
		return ActionChannel
	default:
		return ActionNone
	}
}

// decodeCallbackAction maps inline-button callback data to a menu action.
func decodeCallbackAction(data string) Action {
	switch data {
	case "place_order", "get_quote":
		return ActionPlaceOrder
	case "schedule_consultation":
		return ActionSchedule
	case "contact_us":
		return ActionContact
	case "customer_start":
		return ActionStart
	case "enable_notifications":
		return ActionChannel
	default:
		return ActionNone
	}
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelViewServices),
			tgbotapi.NewKeyboardButton(labelPlaceOrder),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSchedule),
			tgbotapi.NewKeyboardButton(labelContact),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelChannel),
			tgbotapi.NewKeyboardButton(labelHelp),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// HandleUpdate processes one incoming text message. An in-progress
// conversation always wins over menu decoding, except for /cancel.
func (s *Service) HandleUpdate(ctx context.Context, in models.Incoming) error {
	s.rememberUser(in)

	action := decodeAction(in.Text)
	if action == ActionCancel {
		return s.handleCancel(ctx, in.ChatID)
	}

	session, err := s.sessions.Get(ctx, in.ChatID)
	if err != nil {
		s.logger.Error("failed to load session", zap.Error(err), zap.Int64("chat_id", in.ChatID))
	}
	if session != nil {
		return s.flows.HandleInput(ctx, in, session)
	}

	switch action {
	case ActionStart:
		return s.handleStart(in)
	case ActionHelp:
		return s.handleHelp(in.ChatID)
	case ActionStatus:
		return s.handleStatus(in.ChatID)
	case ActionViewServices:
		return s.handleViewServices(in.ChatID)
	case ActionPlaceOrder:
		return s.flows.Start(ctx, FlowOrder, in.ChatID)
	case ActionSchedule:
		return s.flows.Start(ctx, FlowSchedule, in.ChatID)
	case ActionContact:
		return s.flows.Start(ctx, FlowMessage, in.ChatID)
	case ActionChannel:
		return s.handleChannel(in.ChatID)
	default:
		return s.handleUnrecognized(in)
	}
}

// HandleCallback processes one inline-button press as if the equivalent
// menu item had been typed.
func (s *Service) HandleCallback(ctx context.Context, cb models.CallbackQuery) error {
	in := models.Incoming{
		ChatID:    cb.ChatID,
		FirstName: cb.UserName,
	}
	s.rememberUser(in)

	switch decodeCallbackAction(cb.Data) {
	case ActionStart:
		return s.handleStart(in)
	case ActionPlaceOrder:
		return s.flows.Start(ctx, FlowOrder, cb.ChatID)
	case ActionSchedule:
		return s.flows.Start(ctx, FlowSchedule, cb.ChatID)
	case ActionContact:
		return s.flows.Start(ctx, FlowMessage, cb.ChatID)
	case ActionChannel:
		return s.handleChannel(cb.ChatID)
	default:
		s.logger.Warn("unknown callback data",
			zap.String("data", cb.Data),
			zap.Int64("chat_id", cb.ChatID),
		)
		return nil
	}
}

func (s *Service) rememberUser(in models.Incoming) {
	user := models.User{
		TelegramUserID: in.ChatID,
	}
	if in.Username != "" {
		user.Username = null.StringFrom(in.Username)
	}
	if in.FirstName != "" {
		user.FirstName = null.StringFrom(in.FirstName)
	}
	if in.LastName != "" {
		user.LastName = null.StringFrom(in.LastName)
	}

	if err := s.users.Upsert(user); err != nil {
		s.logger.Error("failed to upsert user", zap.Error(err), zap.Int64("chat_id", in.ChatID))
	}
}

func (s *Service) handleStart(in models.Incoming) error {
	defaultWelcome := fmt.Sprintf(
		"🖨️ Welcome to %s!\n\nWe provide professional printing services for all your needs.",
		s.business.Name,
	)
	welcome := s.settings.GetValue("welcome_message", defaultWelcome)

	name := in.FirstName
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hello, %s!\n\n%s\n\nUse the menu below to get started:",
		html.EscapeString(name),
		html.EscapeString(welcome),
	)
	return s.telegram.SendHTMLMessageWithKeyboard(in.ChatID, text, mainMenuKeyboard())
}

func (s *Service) handleHelp(chatID int64) error {
	hours := s.settings.GetValue("business_hours", s.business.Hours)

	text := fmt.Sprintf(
		"❓ <b>Help &amp; Info</b>\n\n"+
			"Here's what I can do for you:\n\n"+
			"🏪 <b>View Services</b> - browse our printing catalog\n"+
			"🛒 <b>Place Order</b> - order banners, flyers, business cards and more\n"+
			"📅 <b>Schedule Consultation</b> - book a meeting with our team\n"+
			"💬 <b>Contact Us</b> - send us a direct message\n\n"+
			"<b>Commands:</b>\n"+
			"/start - show the main menu\n"+
			"/status - bot status\n"+
			"/cancel - cancel the current conversation\n\n"+
			"🖨️ <b>%s</b>\n"+
			"🕒 %s\n"+
			"📞 %s\n"+
			"📧 %s",
		html.EscapeString(s.business.Name),
		html.EscapeString(hours),
		html.EscapeString(s.business.Phone),
		html.EscapeString(s.business.Email),
	)
	return s.telegram.SendHTMLMessage(chatID, text)
}

func (s *Service) handleStatus(chatID int64) error {
	count, err := s.users.Count()
	if err != nil {
		s.logger.Error("failed to count users", zap.Error(err))
	}

	uptime := time.Since(s.startedAt).Round(time.Second)
	text := fmt.Sprintf(
		"🤖 <b>Bot Status</b>\n\n"+
			"✅ Online\n"+
			"⏱ Uptime: %s\n"+
			"👥 Known users: %d",
		uptime, count,
	)
	return s.telegram.SendHTMLMessage(chatID, text)
}

func (s *Service) handleCancel(ctx context.Context, chatID int64) error {
	session, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load session", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	if session == nil {
		return s.telegram.SendHTMLMessageWithKeyboard(chatID,
			"Nothing to cancel. Use the menu below:", mainMenuKeyboard())
	}

	if err := s.flows.Cancel(ctx, chatID); err != nil {
		s.logger.Error("failed to cancel conversation", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return s.telegram.SendHTMLMessageWithKeyboard(chatID,
		"❌ Conversation cancelled. No data was saved.\n\nUse the menu below to start again:",
		mainMenuKeyboard())
}

func (s *Service) handleViewServices(chatID int64) error {
	services, err := s.catalog.List(true)
	if err != nil {
		s.logger.Error("failed to load catalog", zap.Error(err))
		return s.telegram.SendHTMLMessage(chatID,
			"❌ Sorry, the service catalog is temporarily unavailable. Please try again later.")
	}

	var b strings.Builder
	b.WriteString("🏪 <b>Our Printing Services</b>\n\n")
	for _, svc := range services {
		fmt.Fprintf(&b, "🖨️ <b>%s</b>\n", html.EscapeString(svc.Name))
		if svc.Description != "" {
			fmt.Fprintf(&b, "%s\n", html.EscapeString(svc.Description))
		}
		if svc.PriceRange != "" {
			fmt.Fprintf(&b, "💰 %s\n", html.EscapeString(svc.PriceRange))
		}
		if svc.ProcessingTime != "" {
			fmt.Fprintf(&b, "⏱ %s\n", html.EscapeString(svc.ProcessingTime))
		}
		b.WriteString("\n")
	}
	b.WriteString("Ready to order? Tap a button below! 👇")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Place Order", "place_order"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Get Quote", "get_quote"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Schedule Consultation", "schedule_consultation"),
			tgbotapi.NewInlineKeyboardButtonData("💬 Contact Us", "contact_us"),
		),
	)
	return s.telegram.SendMessageWithInlineKeyboard(chatID, b.String(), keyboard)
}

func (s *Service) handleChannel(chatID int64) error {
	if s.channel == "" {
		return s.telegram.SendHTMLMessage(chatID,
			"📢 Our updates channel is not available yet. Check back soon!")
	}

	text := fmt.Sprintf(
		"📢 <b>Stay Updated!</b>\n\n"+
			"Join our channel for promotions, new services and announcements:\n%s",
		html.EscapeString("https://t.me/"+strings.TrimPrefix(s.channel, "@")),
	)
	return s.telegram.SendHTMLMessage(chatID, text)
}

// handleUnrecognized answers free text that matched no command and no
// conversation, and forwards it to the admin so the question is not lost.
func (s *Service) handleUnrecognized(in models.Incoming) error {
	s.notifier.NotifyStrayText(in.ChatID, in.FullName(), in.Text)

	return s.telegram.SendHTMLMessageWithKeyboard(in.ChatID,
		"🤔 I didn't quite understand that.\n\n"+
			"Our team has been notified and will get back to you if needed. "+
			"Meanwhile, the menu below covers everything I can help with:",
		mainMenuKeyboard())
}
