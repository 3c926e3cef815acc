package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"kalprint/internal/models"
	"kalprint/internal/validate"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"
)

// Order flow states, one per collected field.
const (
	orderStepName = iota
	orderStepCompany
	orderStepService
	orderStepQuantity
	orderStepDate
	orderStepContact
)

// Schedule and message flows share the same three-state shape.
const (
	reqStepName = iota
	reqStepContact
	reqStepDetail
)

// Words that skip the optional company field.
var companySkipWords = map[string]bool{
	"skip":     true,
	"none":     true,
	"personal": true,
	"-":        true,
}

// FlowManager drives the three guided conversations. Each flow is a linear
// state machine: one validator per state, re-prompt on failure, advance on
// success, and a create-record + notify + summary + clear sequence at the
// end. State lives in the SessionStore keyed by chat id, so flows for
// different users never interact.
type FlowManager struct {
	telegram  TelegramClient
	logger    *zap.Logger
	notifier  *Notifier
	sessions  SessionStore
	orders    OrderStore
	schedules ScheduleStore
	messages  MessageStore
	catalog   CatalogStore
}

func NewFlowManager(
	telegram TelegramClient,
	logger *zap.Logger,
	notifier *Notifier,
	sessions SessionStore,
	orders OrderStore,
	schedules ScheduleStore,
	messages MessageStore,
	catalog CatalogStore,
) *FlowManager {
	return &FlowManager{
		telegram:  telegram,
		logger:    logger,
		notifier:  notifier,
		sessions:  sessions,
		orders:    orders,
		schedules: schedules,
		messages:  messages,
		catalog:   catalog,
	}
}

// Start opens a new conversation of the given kind, replacing any session
// the user may have abandoned earlier.
func (f *FlowManager) Start(ctx context.Context, kind FlowKind, chatID int64) error {
	session := newSession(kind)
	if err := f.sessions.Put(ctx, chatID, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	var intro string
	switch kind {
	case FlowOrder:
		intro = "🛒 <b>Place Your Order</b>\n\n" +
			"I'll help you place an order for our printing services. " +
			"Let me collect some information from you.\n\n" +
			"First, please tell me your <b>full name</b>:"
	case FlowSchedule:
		intro = "📅 <b>Schedule a Consultation</b>\n\n" +
			"I'd be happy to help you schedule a consultation about our printing services. " +
			"Let me collect some information from you.\n\n" +
			"First, please tell me your <b>full name</b>:"
	case FlowMessage:
		intro = "💬 <b>Message Us Directly</b>\n\n" +
			"Your message will go straight to our team. " +
			"Let me collect some information from you.\n\n" +
			"First, please tell me your <b>full name</b>:"
	}

	f.logger.Info("conversation started",
		zap.Int64("chat_id", chatID),
		zap.String("flow", string(kind)),
	)
	return f.telegram.SendHTMLMessage(chatID, intro)
}

// Cancel terminates the user's conversation, clearing transient state.
func (f *FlowManager) Cancel(ctx context.Context, chatID int64) error {
	if err := f.sessions.Delete(ctx, chatID); err != nil {
		return err
	}
	f.logger.Info("conversation cancelled", zap.Int64("chat_id", chatID))
	return nil
}

// HandleInput feeds one message into the user's in-progress conversation.
func (f *FlowManager) HandleInput(ctx context.Context, in models.Incoming, session *Session) error {
	switch session.Flow {
	case FlowOrder:
		return f.handleOrderInput(ctx, in, session)
	case FlowSchedule:
		return f.handleScheduleInput(ctx, in, session)
	case FlowMessage:
		return f.handleMessageInput(ctx, in, session)
	default:
		// Unknown flow tag, e.g. from an old serialized session. Drop it.
		f.logger.Warn("session with unknown flow discarded",
			zap.Int64("chat_id", in.ChatID),
			zap.String("flow", string(session.Flow)),
		)
		return f.sessions.Delete(ctx, in.ChatID)
	}
}

func (f *FlowManager) handleOrderInput(ctx context.Context, in models.Incoming, session *Session) error {
	chatID := in.ChatID

	switch session.Step {
	case orderStepName:
		name, err := validate.Name(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please enter a valid name:")
		}
		session.Fields["customer_name"] = name
		return f.advance(ctx, chatID, session, fmt.Sprintf(
			"👋 Nice to meet you, %s!\n\n"+
				"Now, please tell me your <b>company name</b> (or type 'skip' if this is a personal order):",
			html.EscapeString(name),
		))

	case orderStepCompany:
		if companySkipWords[strings.ToLower(strings.TrimSpace(in.Text))] {
			session.Fields["company_name"] = ""
		} else {
			company, err := validate.CompanyName(in.Text)
			if err != nil {
				return f.reprompt(ctx, chatID, session, err, "Please enter a valid company name or type 'skip':")
			}
			session.Fields["company_name"] = company
		}

		prompt, err := f.servicesPrompt()
		if err != nil {
			return f.abort(ctx, chatID, "❌ Sorry, there was an error processing your order. Please try again or contact us directly.")
		}
		return f.advance(ctx, chatID, session, prompt)

	case orderStepService:
		selected, err := f.matchService(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please choose from the list above (type the service name or number):")
		}
		session.Fields["product_type"] = selected
		return f.advance(ctx, chatID, session, fmt.Sprintf(
			"✅ Great! You selected: <b>%s</b>\n\n"+
				"How many do you need? Please enter the <b>quantity</b>:",
			html.EscapeString(selected),
		))

	case orderStepQuantity:
		quantity, err := validate.Quantity(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please enter a valid quantity (positive number):")
		}
		session.Fields["quantity"] = strconv.Itoa(quantity)
		return f.advance(ctx, chatID, session, fmt.Sprintf(
			"📊 Quantity: <b>%d</b>\n\n"+
				"When do you need this delivered?\n"+
				"Please enter the <b>delivery date</b> (format: DD/MM/YYYY, e.g., 25/12/2026):",
			quantity,
		))

	case orderStepDate:
		date, err := validate.DeliveryDate(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please enter a valid future date in DD/MM/YYYY format:")
		}
		session.Fields["delivery_date"] = date
		return f.advance(ctx, chatID, session, fmt.Sprintf(
			"📅 Delivery date: <b>%s</b>\n\n"+
				"Finally, please provide your <b>contact information</b>\n"+
				"(phone number or email address):",
			date,
		))

	case orderStepContact:
		contact, err := validate.ContactInfo(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please provide a valid phone number or email address:")
		}
		session.Fields["contact_info"] = contact
		return f.finalizeOrder(ctx, in, session)

	default:
		return f.sessions.Delete(ctx, chatID)
	}
}

func (f *FlowManager) finalizeOrder(ctx context.Context, in models.Incoming, session *Session) error {
	quantity, _ := strconv.Atoi(session.Fields["quantity"])

	order := models.Order{
		CustomerName:   session.Fields["customer_name"],
		ProductType:    session.Fields["product_type"],
		Quantity:       quantity,
		DeliveryDate:   session.Fields["delivery_date"],
		ContactInfo:    session.Fields["contact_info"],
		Status:         models.OrderStatusPending,
		TelegramUserID: null.Int64From(in.ChatID),
	}
	if company := session.Fields["company_name"]; company != "" {
		order.CompanyName = null.StringFrom(company)
	}

	if err := f.orders.Create(&order); err != nil {
		f.logger.Error("failed to persist order",
			zap.Error(err),
			zap.Int64("chat_id", in.ChatID),
		)
		return f.abort(ctx, in.ChatID, "❌ Sorry, there was an error processing your order. Please try again or contact us directly.")
	}

	// Best effort only: the order is already saved.
	f.notifier.NotifyNewOrder(order)

	companyInfo := ""
	if order.CompanyName.Valid {
		companyInfo = fmt.Sprintf("\n🏢 <b>Company:</b> %s", html.EscapeString(order.CompanyName.String))
	}

	summary := fmt.Sprintf(
		"✅ <b>Order Placed Successfully!</b>\n\n"+
			"📋 <b>Order ID:</b> %s\n"+
			"👤 <b>Name:</b> %s%s\n"+
			"🖨️ <b>Service:</b> %s\n"+
			"📊 <b>Quantity:</b> %d\n"+
			"📅 <b>Delivery Date:</b> %s\n"+
			"📞 <b>Contact:</b> %s\n\n"+
			"We will review your order and contact you within 24 hours to confirm details and provide a quote.\n\n"+
			"Thank you for choosing our printing services! 🖨️",
		order.Reference,
		html.EscapeString(order.CustomerName),
		companyInfo,
		html.EscapeString(order.ProductType),
		order.Quantity,
		order.DeliveryDate,
		formatContactDisplay(order.ContactInfo),
	)

	return f.finish(ctx, in.ChatID, summary)
}

func (f *FlowManager) handleScheduleInput(ctx context.Context, in models.Incoming, session *Session) error {
	chatID := in.ChatID

	switch session.Step {
	case reqStepName:
		name, err := validate.Name(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please enter a valid name:")
		}
		session.Fields["customer_name"] = name
		return f.advance(ctx, chatID, session, fmt.Sprintf(
			"👋 Hello %s!\n\n"+
				"Please provide your <b>contact information</b> (phone number or email address) "+
				"so we can reach you to confirm the appointment:",
			html.EscapeString(name),
		))

	case reqStepContact:
		contact, err := validate.ContactInfo(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please provide a valid phone number or email address:")
		}
		session.Fields["contact_info"] = contact
		return f.advance(ctx, chatID, session,
			"🕒 <b>When would you like to schedule the consultation?</b>\n\n"+
				"You can provide your preferred date and time in various formats:\n"+
				"• <b>Specific datetime:</b> \"25/12/2026 14:30\" or \"25/12/2026 2:30 PM\"\n"+
				"• <b>Natural language:</b> \"Next Monday at 2 PM\" or \"Tomorrow afternoon\"\n\n"+
				"Our typical business hours are Monday-Friday, 8 AM - 6 PM, but we can accommodate other times if needed.\n\n"+
				"Please tell me your preferred date and time:")

	case reqStepDetail:
		preferred, err := validate.DatetimePreference(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err,
				"You can use formats like:\n• 25/12/2026 14:30\n• Next Monday 2 PM\n• Tomorrow afternoon")
		}
		session.Fields["preferred_datetime"] = preferred
		return f.finalizeSchedule(ctx, in, session)

	default:
		return f.sessions.Delete(ctx, chatID)
	}
}

func (f *FlowManager) finalizeSchedule(ctx context.Context, in models.Incoming, session *Session) error {
	schedule := models.Schedule{
		CustomerName:      session.Fields["customer_name"],
		ContactInfo:       session.Fields["contact_info"],
		PreferredDatetime: session.Fields["preferred_datetime"],
		Status:            models.ScheduleStatusPending,
		TelegramUserID:    null.Int64From(in.ChatID),
	}

	if err := f.schedules.Create(&schedule); err != nil {
		f.logger.Error("failed to persist schedule",
			zap.Error(err),
			zap.Int64("chat_id", in.ChatID),
		)
		return f.abort(ctx, in.ChatID, "❌ Sorry, there was an error scheduling your consultation. Please try again or contact us directly.")
	}

	f.notifier.NotifyNewSchedule(schedule)

	summary := fmt.Sprintf(
		"✅ <b>Consultation Scheduled!</b>\n\n"+
			"📋 <b>Schedule ID:</b> #%d\n"+
			"👤 <b>Name:</b> %s\n"+
			"🕒 <b>Preferred Time:</b> %s\n"+
			"📞 <b>Contact:</b> %s\n\n"+
			"<b>What happens next?</b>\n"+
			"• We will review your request within 24 hours\n"+
			"• You will receive a confirmation with the exact date and time\n"+
			"• We'll provide you with meeting details\n\n"+
			"Thank you for your interest in our services! 📅",
		schedule.ID,
		html.EscapeString(schedule.CustomerName),
		html.EscapeString(schedule.PreferredDatetime),
		formatContactDisplay(schedule.ContactInfo),
	)

	return f.finish(ctx, in.ChatID, summary)
}

func (f *FlowManager) handleMessageInput(ctx context.Context, in models.Incoming, session *Session) error {
	chatID := in.ChatID

	switch session.Step {
	case reqStepName:
		name, err := validate.Name(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please enter a valid name:")
		}
		session.Fields["customer_name"] = name
		return f.advance(ctx, chatID, session, fmt.Sprintf(
			"👋 Hello %s!\n\n"+
				"Please provide your <b>contact information</b> (phone number or email address) "+
				"so we can get back to you:",
			html.EscapeString(name),
		))

	case reqStepContact:
		contact, err := validate.ContactInfo(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please provide a valid phone number or email address:")
		}
		session.Fields["contact_info"] = contact
		return f.advance(ctx, chatID, session,
			"💭 What would you like to tell us?\n\n"+
				"Please type your <b>message</b> (5-1000 characters):")

	case reqStepDetail:
		text, err := validate.MessageText(in.Text)
		if err != nil {
			return f.reprompt(ctx, chatID, session, err, "Please type your message (5-1000 characters):")
		}
		session.Fields["message_text"] = text
		return f.finalizeMessage(ctx, in, session)

	default:
		return f.sessions.Delete(ctx, chatID)
	}
}

func (f *FlowManager) finalizeMessage(ctx context.Context, in models.Incoming, session *Session) error {
	msg := models.DirectMessage{
		CustomerName:   session.Fields["customer_name"],
		ContactInfo:    session.Fields["contact_info"],
		MessageText:    session.Fields["message_text"],
		Status:         models.MessageStatusPending,
		TelegramUserID: null.Int64From(in.ChatID),
	}

	if err := f.messages.Create(&msg); err != nil {
		f.logger.Error("failed to persist message",
			zap.Error(err),
			zap.Int64("chat_id", in.ChatID),
		)
		return f.abort(ctx, in.ChatID, "❌ Sorry, there was an error sending your message. Please try again or contact us directly.")
	}

	f.notifier.NotifyNewMessage(msg)

	summary := fmt.Sprintf(
		"✅ <b>Message Sent!</b>\n\n"+
			"📋 <b>Message ID:</b> #%d\n"+
			"👤 <b>Name:</b> %s\n"+
			"📞 <b>Contact:</b> %s\n\n"+
			"We will get back to you within 24 hours. Thank you for reaching out! 💬",
		msg.ID,
		html.EscapeString(msg.CustomerName),
		formatContactDisplay(msg.ContactInfo),
	)

	return f.finish(ctx, in.ChatID, summary)
}

// reprompt sends the validator's message and keeps the session in the same
// state; the Put refreshes the TTL so an actively struggling user is not
// evicted.
func (f *FlowManager) reprompt(ctx context.Context, chatID int64, session *Session, cause error, hint string) error {
	if err := f.sessions.Put(ctx, chatID, session); err != nil {
		return err
	}
	return f.telegram.SendHTMLMessage(chatID, fmt.Sprintf("❌ %s\n\n%s", cause.Error(), hint))
}

// advance stores the updated session and sends the next prompt.
func (f *FlowManager) advance(ctx context.Context, chatID int64, session *Session, prompt string) error {
	session.Step++
	if err := f.sessions.Put(ctx, chatID, session); err != nil {
		return err
	}
	return f.telegram.SendHTMLMessage(chatID, prompt)
}

// finish ends a completed conversation: summary reply, menu back, state gone.
func (f *FlowManager) finish(ctx context.Context, chatID int64, summary string) error {
	if err := f.sessions.Delete(ctx, chatID); err != nil {
		f.logger.Error("failed to clear session", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return f.telegram.SendHTMLMessageWithKeyboard(chatID, summary, mainMenuKeyboard())
}

// abort ends a conversation after an internal failure. The session is
// always cleared so no orphaned transient state stays behind.
func (f *FlowManager) abort(ctx context.Context, chatID int64, apology string) error {
	if err := f.sessions.Delete(ctx, chatID); err != nil {
		f.logger.Error("failed to clear session", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return f.telegram.SendHTMLMessageWithKeyboard(chatID, apology, mainMenuKeyboard())
}

// servicesPrompt renders the active catalog as a numbered list.
func (f *FlowManager) servicesPrompt() (string, error) {
	services, err := f.catalog.List(true)
	if err != nil {
		f.logger.Error("failed to load catalog", zap.Error(err))
		return "", err
	}

	var b strings.Builder
	b.WriteString("📋 <b>Available Services:</b>\n\n")
	for i, service := range services {
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, html.EscapeString(service.Name))
		if service.Description != "" {
			fmt.Fprintf(&b, "   %s\n", html.EscapeString(service.Description))
		}
		if service.PriceRange != "" {
			fmt.Fprintf(&b, "   💰 %s\n", html.EscapeString(service.PriceRange))
		}
		b.WriteString("\n")
	}
	b.WriteString("Please tell me which service you need (you can type the name or number):")

	return b.String(), nil
}

// matchService resolves user input to an active service, accepting either
// the position in the listed catalog or a (partial) name.
func (f *FlowManager) matchService(input string) (string, error) {
	services, err := f.catalog.List(true)
	if err != nil {
		f.logger.Error("failed to load catalog", zap.Error(err))
		return "", fmt.Errorf("I couldn't find that service")
	}

	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = svc.Name
	}

	if idx, convErr := strconv.Atoi(strings.TrimSpace(input)); convErr == nil {
		if idx >= 1 && idx <= len(names) {
			return names[idx-1], nil
		}
		return "", fmt.Errorf("I couldn't find that service")
	}

	return validate.ServiceSelection(input, names)
}

func formatContactDisplay(contact string) string {
	if strings.Contains(contact, "@") {
		return "📧 " + html.EscapeString(contact)
	}
	return "📞 " + html.EscapeString(contact)
}
