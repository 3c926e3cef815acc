package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kalprint/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramClient wraps the Bot API for sending messages and long polling.
type TelegramClient struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramClient(token string) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram client: %w", err)
	}

	return &TelegramClient{
		bot: bot,
	}, nil
}

func (t *TelegramClient) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramClient) SendHTMLMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramClient) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramClient) SendHTMLMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramClient) SendMessageWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	_, err := t.bot.Send(msg)
	return err
}

// SendToChannel posts to a channel addressed either by @username or by a
// numeric chat id. Numeric ids get the "-100" supergroup prefix when it is
// missing.
func (t *TelegramClient) SendToChannel(channel string, text string) error {
	msg := tgbotapi.NewMessageToChannel(channel, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if !strings.HasPrefix(channel, "@") {
		id := channel
		if !strings.HasPrefix(id, "-100") {
			id = "-100" + strings.TrimPrefix(id, "-")
		}
		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid channel ID: %w", err)
		}
		msg.ChannelUsername = ""
		msg.ChatID = chatID
	}

	_, err := t.bot.Send(msg)
	return err
}

// StartBot deletes any webhook, starts long polling and fans updates out
// on two channels: plain text messages and inline-button callback queries.
// Callbacks are acknowledged here so buttons never stay in the loading
// state.
func (t *TelegramClient) StartBot() (chan models.Incoming, chan models.CallbackQuery, error) {
	if _, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, nil, fmt.Errorf("failed to delete webhook: %w", err)
	}

	// Let the webhook removal settle before polling starts.
	time.Sleep(1 * time.Second)

	incoming := make(chan models.Incoming)
	callbackQueries := make(chan models.CallbackQuery)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)

	go func() {
		defer close(incoming)
		defer close(callbackQueries)

		for update := range updates {
			if update.Message != nil && update.Message.Text != "" {
				incoming <- models.Incoming{
					ChatID:    update.Message.Chat.ID,
					Text:      update.Message.Text,
					Username:  update.Message.From.UserName,
					FirstName: update.Message.From.FirstName,
					LastName:  update.Message.From.LastName,
				}
			}

			if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
				userName := update.CallbackQuery.From.FirstName
				if update.CallbackQuery.From.LastName != "" {
					userName += " " + update.CallbackQuery.From.LastName
				}

				callbackQueries <- models.CallbackQuery{
					ID:       update.CallbackQuery.ID,
					UserID:   update.CallbackQuery.From.ID,
					UserName: userName,
					ChatID:   update.CallbackQuery.Message.Chat.ID,
					Data:     update.CallbackQuery.Data,
				}

				// Clear the button loading indicator; a failed ack is harmless.
				callbackCfg := tgbotapi.NewCallback(update.CallbackQuery.ID, "")
				_, _ = t.bot.Request(callbackCfg)
			}
		}
	}()

	return incoming, callbackQueries, nil
}
