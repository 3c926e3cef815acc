package bot

import (
	"fmt"
	"html"
	"time"
	"unicode/utf8"

	"kalprint/internal/config"
	"kalprint/internal/models"

	"go.uber.org/zap"
)

// Longer message bodies are truncated in admin notifications.
const notifyMessagePreviewLen = 200

// Notifier formats event notices and sends them to the configured admin
// chat (and, for broadcasts, the public channel). Delivery is at-most-once:
// failures are logged and reported as a boolean, never retried, and never
// block the conversation that triggered them.
type Notifier struct {
	telegram    TelegramClient
	logger      *zap.Logger
	adminChatID int64
	channel     string
	business    config.Business
}

func NewNotifier(telegram TelegramClient, logger *zap.Logger, adminChatID int64, channel string, business config.Business) *Notifier {
	return &Notifier{
		telegram:    telegram,
		logger:      logger,
		adminChatID: adminChatID,
		channel:     channel,
		business:    business,
	}
}

// NotifyNewOrder tells the admin about a freshly placed order.
func (n *Notifier) NotifyNewOrder(order models.Order) bool {
	companyInfo := ""
	if order.CompanyName.Valid {
		companyInfo = fmt.Sprintf(" (%s)", html.EscapeString(order.CompanyName.String))
	}

	text := fmt.Sprintf(
		"🆕 <b>NEW ORDER RECEIVED!</b>\n\n"+
			"📋 <b>Order:</b> %s\n"+
			"👤 <b>Customer:</b> %s%s\n"+
			"🖨️ <b>Product:</b> %s\n"+
			"📊 <b>Quantity:</b> %d\n"+
			"📅 <b>Delivery Date:</b> %s\n"+
			"📞 <b>Contact:</b> %s\n\n"+
			"⏰ <b>Received:</b> %s\n\n"+
			"Please review and process this order promptly.",
		order.Reference,
		html.EscapeString(order.CustomerName),
		companyInfo,
		html.EscapeString(order.ProductType),
		order.Quantity,
		order.DeliveryDate,
		html.EscapeString(order.ContactInfo),
		currentTime(),
	)

	return n.sendToAdmin(text)
}

// NotifyNewSchedule tells the admin about a new consultation request.
func (n *Notifier) NotifyNewSchedule(schedule models.Schedule) bool {
	text := fmt.Sprintf(
		"📅 <b>NEW CONSULTATION SCHEDULED!</b>\n\n"+
			"📋 <b>Schedule ID:</b> #%d\n"+
			"👤 <b>Customer:</b> %s\n"+
			"🕒 <b>Preferred Time:</b> %s\n"+
			"📞 <b>Contact:</b> %s\n\n"+
			"⏰ <b>Requested:</b> %s\n\n"+
			"Please confirm the appointment with the customer.",
		schedule.ID,
		html.EscapeString(schedule.CustomerName),
		html.EscapeString(schedule.PreferredDatetime),
		html.EscapeString(schedule.ContactInfo),
		currentTime(),
	)

	return n.sendToAdmin(text)
}

// NotifyNewMessage tells the admin about a new direct message.
func (n *Notifier) NotifyNewMessage(msg models.DirectMessage) bool {
	// Truncate on rune boundaries so multi-byte text is never split.
	preview := msg.MessageText
	if utf8.RuneCountInString(preview) > notifyMessagePreviewLen {
		preview = string([]rune(preview)[:notifyMessagePreviewLen]) + "..."
	}

	text := fmt.Sprintf(
		"💬 <b>NEW DIRECT MESSAGE!</b>\n\n"+
			"📋 <b>Message ID:</b> #%d\n"+
			"👤 <b>From:</b> %s\n"+
			"📞 <b>Contact:</b> %s\n\n"+
			"💭 <b>Message:</b>\n%s\n\n"+
			"⏰ <b>Received:</b> %s\n\n"+
			"Please respond to the customer promptly.",
		msg.ID,
		html.EscapeString(msg.CustomerName),
		html.EscapeString(msg.ContactInfo),
		html.EscapeString(preview),
		currentTime(),
	)

	return n.sendToAdmin(text)
}

// NotifyStrayText forwards unrecognized free text to the admin so no
// customer question is silently dropped.
func (n *Notifier) NotifyStrayText(chatID int64, fullName, text string) bool {
	notice := fmt.Sprintf(
		"💬 <b>Unhandled message</b>\n\n"+
			"👤 %s (chat %d) wrote:\n%s",
		html.EscapeString(fullName),
		chatID,
		html.EscapeString(text),
	)

	return n.sendToAdmin(notice)
}

// Broadcast posts an announcement to the public channel.
func (n *Notifier) Broadcast(title, content string, includeBusinessInfo bool) bool {
	if n.channel == "" {
		n.logger.Warn("broadcast channel not configured")
		return false
	}

	text := fmt.Sprintf("📢 <b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(content))
	if includeBusinessInfo {
		text += fmt.Sprintf("\n\n🖨️ <b>%s</b>\n📞 %s\n📧 %s",
			html.EscapeString(n.business.Name),
			html.EscapeString(n.business.Phone),
			html.EscapeString(n.business.Email),
		)
	}

	if err := n.telegram.SendToChannel(n.channel, text); err != nil {
		n.logger.Error("failed to send channel broadcast",
			zap.Error(err),
			zap.String("channel", n.channel),
		)
		return false
	}

	n.logger.Info("channel broadcast sent", zap.String("channel", n.channel))
	return true
}

func (n *Notifier) sendToAdmin(text string) bool {
	if n.adminChatID == 0 {
		n.logger.Error("admin chat id not configured")
		return false
	}

	if err := n.telegram.SendHTMLMessage(n.adminChatID, text); err != nil {
		n.logger.Error("failed to send admin notification",
			zap.Error(err),
			zap.Int64("admin_chat_id", n.adminChatID),
		)
		return false
	}

	n.logger.Info("admin notification sent")
	return true
}

func currentTime() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
