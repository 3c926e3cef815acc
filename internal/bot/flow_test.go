package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kalprint/internal/config"
	"kalprint/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminChatID int64 = 999

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	mu           sync.Mutex
	sent         []sentMessage
	channelPosts []string
	messages     chan models.Incoming
	callbacks    chan models.CallbackQuery
}

func (f *fakeTelegram) record(chatID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendHTMLMessage(chatID int64, text string) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendMessageWithKeyboard(chatID int64, text string, _ tgbotapi.ReplyKeyboardMarkup) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendHTMLMessageWithKeyboard(chatID int64, text string, _ tgbotapi.ReplyKeyboardMarkup) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendMessageWithInlineKeyboard(chatID int64, text string, _ tgbotapi.InlineKeyboardMarkup) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendToChannel(_ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelPosts = append(f.channelPosts, text)
	return nil
}

// StartBot hands out stable channels so tests can feed updates into a
// running Service loop.
func (f *fakeTelegram) StartBot() (chan models.Incoming, chan models.CallbackQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messages == nil {
		f.messages = make(chan models.Incoming)
		f.callbacks = make(chan models.CallbackQuery)
	}
	return f.messages, f.callbacks, nil
}

// lastTo returns the most recent message sent to the given chat.
func (f *fakeTelegram) lastTo(chatID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].chatID == chatID {
			return f.sent[i].text
		}
	}
	return ""
}

func (f *fakeTelegram) countTo(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.chatID == chatID {
			n++
		}
	}
	return n
}

type fakeOrders struct {
	created []models.Order
	err     error
}

func (f *fakeOrders) Create(order *models.Order) error {
	if f.err != nil {
		return f.err
	}
	order.ID = int64(len(f.created) + 1)
	order.Reference = fmt.Sprintf("ORD-TEST%04d", order.ID)
	f.created = append(f.created, *order)
	return nil
}

type fakeSchedules struct {
	created []models.Schedule
	err     error
}

func (f *fakeSchedules) Create(schedule *models.Schedule) error {
	if f.err != nil {
		return f.err
	}
	schedule.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *schedule)
	return nil
}

type fakeMessages struct {
	created []models.DirectMessage
	err     error
}

func (f *fakeMessages) Create(msg *models.DirectMessage) error {
	if f.err != nil {
		return f.err
	}
	msg.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *msg)
	return nil
}

type fakeCatalog struct {
	services []models.Service
	err      error
}

func (f *fakeCatalog) List(_ bool) ([]models.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.services, nil
}

type flowFixture struct {
	flows     *FlowManager
	telegram  *fakeTelegram
	sessions  *MemoryStore
	orders    *fakeOrders
	schedules *fakeSchedules
	messages  *fakeMessages
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	telegram := &fakeTelegram{}
	sessions := NewMemoryStore(time.Minute)
	t.Cleanup(sessions.Close)

	orders := &fakeOrders{}
	schedules := &fakeSchedules{}
	messages := &fakeMessages{}
	catalog := &fakeCatalog{services: []models.Service{
		{ID: 1, Name: "Banners", Description: "Large format banners", PriceRange: "$30-$200"},
		{ID: 2, Name: "Business Cards", Description: "Premium cards", PriceRange: "$20-$80"},
		{ID: 3, Name: "Flyers", PriceRange: "$15-$60"},
	}}

	logger := zap.NewNop()
	notifier := NewNotifier(telegram, logger, testAdminChatID, "", config.Business{Name: "Test Print"})
	flows := NewFlowManager(telegram, logger, notifier, sessions, orders, schedules, messages, catalog)

	return &flowFixture{
		flows:     flows,
		telegram:  telegram,
		sessions:  sessions,
		orders:    orders,
		schedules: schedules,
		messages:  messages,
	}
}

// feed runs one message through the user's current conversation.
func (fx *flowFixture) feed(t *testing.T, chatID int64, text string) {
	t.Helper()

	session, err := fx.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	require.NotNil(t, session, "expected a conversation in progress")

	in := models.Incoming{ChatID: chatID, Text: text, FirstName: "Test"}
	require.NoError(t, fx.flows.HandleInput(context.Background(), in, session))
}

func (fx *flowFixture) sessionGone(t *testing.T, chatID int64) {
	t.Helper()
	session, err := fx.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("02/01/2006")
}

func TestOrderFlowCompletes(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(42)

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	assert.Contains(t, fx.telegram.lastTo(chatID), "full name")

	fx.feed(t, chatID, "john smith")
	assert.Contains(t, fx.telegram.lastTo(chatID), "John Smith")

	fx.feed(t, chatID, "skip")
	assert.Contains(t, fx.telegram.lastTo(chatID), "Available Services")

	fx.feed(t, chatID, "2") // numeric selection
	assert.Contains(t, fx.telegram.lastTo(chatID), "Business Cards")

	fx.feed(t, chatID, "500")
	fx.feed(t, chatID, futureDate(7))
	fx.feed(t, chatID, "JOHN@Example.com")

	require.Len(t, fx.orders.created, 1)
	order := fx.orders.created[0]
	assert.Equal(t, "John Smith", order.CustomerName)
	assert.False(t, order.CompanyName.Valid)
	assert.Equal(t, "Business Cards", order.ProductType)
	assert.Equal(t, 500, order.Quantity)
	assert.Equal(t, futureDate(7), order.DeliveryDate)
	assert.Equal(t, "john@example.com", order.ContactInfo)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, chatID, order.TelegramUserID.Int64)

	summary := fx.telegram.lastTo(chatID)
	assert.Contains(t, summary, "Order Placed Successfully")
	assert.Contains(t, summary, order.Reference)

	assert.Equal(t, 1, fx.telegram.countTo(testAdminChatID), "exactly one admin notification")
	assert.Contains(t, fx.telegram.lastTo(testAdminChatID), "NEW ORDER")

	fx.sessionGone(t, chatID)
}

func TestOrderFlowKeepsCompanyName(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(43)

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	fx.feed(t, chatID, "Jane Doe")
	fx.feed(t, chatID, "Acme Corp.")
	fx.feed(t, chatID, "banners")
	fx.feed(t, chatID, "10")
	fx.feed(t, chatID, futureDate(14))
	fx.feed(t, chatID, "+1 (555) 123-4567")

	require.Len(t, fx.orders.created, 1)
	order := fx.orders.created[0]
	assert.Equal(t, "Acme Corp.", order.CompanyName.String)
	assert.Equal(t, "Banners", order.ProductType)
	assert.Equal(t, "+1 (555) 123-4567", order.ContactInfo)
}

func TestOrderFlowInvalidInputReprompts(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(44)

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	fx.feed(t, chatID, "John Smith")
	fx.feed(t, chatID, "skip")
	fx.feed(t, chatID, "Flyers")

	fx.feed(t, chatID, "lots")
	assert.Contains(t, fx.telegram.lastTo(chatID), "❌")

	// Still on the quantity step.
	session, err := fx.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, orderStepQuantity, session.Step)

	fx.feed(t, chatID, "250")
	session, err = fx.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, orderStepDate, session.Step)

	assert.Empty(t, fx.orders.created)
}

func TestOrderFlowAmbiguousServiceRejected(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(45)

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	fx.feed(t, chatID, "John Smith")
	fx.feed(t, chatID, "none")

	// "b" matches both Banners and Business Cards.
	fx.feed(t, chatID, "b")
	assert.Contains(t, fx.telegram.lastTo(chatID), "❌")

	session, err := fx.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, orderStepService, session.Step)
}

func TestOrderFlowPersistFailureClearsSession(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(46)
	fx.orders.err = errors.New("disk full")

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	fx.feed(t, chatID, "John Smith")
	fx.feed(t, chatID, "skip")
	fx.feed(t, chatID, "1")
	fx.feed(t, chatID, "10")
	fx.feed(t, chatID, futureDate(3))
	fx.feed(t, chatID, "john@example.com")

	assert.Contains(t, fx.telegram.lastTo(chatID), "error processing your order")
	assert.Equal(t, 0, fx.telegram.countTo(testAdminChatID), "no notification for a failed order")
	fx.sessionGone(t, chatID)
}

func TestScheduleFlowCompletes(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(47)

	require.NoError(t, fx.flows.Start(ctx, FlowSchedule, chatID))
	fx.feed(t, chatID, "alice brown")
	fx.feed(t, chatID, "alice@example.com")
	fx.feed(t, chatID, "Next Monday at 2 PM")

	require.Len(t, fx.schedules.created, 1)
	schedule := fx.schedules.created[0]
	assert.Equal(t, "Alice Brown", schedule.CustomerName)
	assert.Equal(t, "alice@example.com", schedule.ContactInfo)
	assert.Equal(t, "Next Monday at 2 PM (Will confirm specific time)", schedule.PreferredDatetime)
	assert.Equal(t, models.ScheduleStatusPending, schedule.Status)

	assert.Contains(t, fx.telegram.lastTo(chatID), "Consultation Scheduled")
	assert.Contains(t, fx.telegram.lastTo(testAdminChatID), "NEW CONSULTATION")
	fx.sessionGone(t, chatID)
}

func TestMessageFlowCompletes(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(48)

	require.NoError(t, fx.flows.Start(ctx, FlowMessage, chatID))
	fx.feed(t, chatID, "Bob O'Neil")
	fx.feed(t, chatID, "555 123 456")
	fx.feed(t, chatID, "Do you print on recycled paper?")

	require.Len(t, fx.messages.created, 1)
	msg := fx.messages.created[0]
	assert.Equal(t, "Bob O'Neil", msg.CustomerName)
	assert.Equal(t, "Do you print on recycled paper?", msg.MessageText)
	assert.Equal(t, models.MessageStatusPending, msg.Status)

	assert.Contains(t, fx.telegram.lastTo(chatID), "Message Sent")
	assert.Contains(t, fx.telegram.lastTo(testAdminChatID), "NEW DIRECT MESSAGE")
	fx.sessionGone(t, chatID)
}

func TestMessageFlowRejectsShortText(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(49)

	require.NoError(t, fx.flows.Start(ctx, FlowMessage, chatID))
	fx.feed(t, chatID, "Bob Smith")
	fx.feed(t, chatID, "bob@example.com")
	fx.feed(t, chatID, "hi")

	assert.Contains(t, fx.telegram.lastTo(chatID), "too short")
	assert.Empty(t, fx.messages.created)
}

func TestCancelClearsSession(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(50)

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	fx.feed(t, chatID, "John Smith")

	require.NoError(t, fx.flows.Cancel(ctx, chatID))
	fx.sessionGone(t, chatID)
	assert.Empty(t, fx.orders.created)
}

func TestStartReplacesExistingSession(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	chatID := int64(51)

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, chatID))
	fx.feed(t, chatID, "John Smith")

	require.NoError(t, fx.flows.Start(ctx, FlowSchedule, chatID))

	session, err := fx.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, FlowSchedule, session.Flow)
	assert.Equal(t, 0, session.Step)
	assert.Empty(t, session.Fields)
}

func TestStrayTextBetweenFlowsIsIsolatedPerChat(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flows.Start(ctx, FlowOrder, 60))
	require.NoError(t, fx.flows.Start(ctx, FlowMessage, 61))

	fx.feed(t, 60, "John Smith")
	fx.feed(t, 61, "Alice Brown")

	sessionA, err := fx.sessions.Get(ctx, 60)
	require.NoError(t, err)
	require.NotNil(t, sessionA)
	assert.Equal(t, FlowOrder, sessionA.Flow)
	assert.Equal(t, "John Smith", sessionA.Fields["customer_name"])

	sessionB, err := fx.sessions.Get(ctx, 61)
	require.NoError(t, err)
	require.NotNil(t, sessionB)
	assert.Equal(t, FlowMessage, sessionB.Flow)
	assert.Equal(t, "Alice Brown", sessionB.Fields["customer_name"])
}
