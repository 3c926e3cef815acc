package bot

import (
	"context"

	"kalprint/internal/models"

	"go.uber.org/zap"
)

// Start begins long polling and blocks, dispatching updates until the
// context is cancelled. Callback queries are drained on a separate
// goroutine so a slow flow never stalls button presses.
func (s *Service) Start(ctx context.Context) error {
	messages, callbacks, err := s.telegram.StartBot()
	if err != nil {
		return err
	}
	s.logger.Info("bot started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case cb, ok := <-callbacks:
				if !ok {
					return
				}
				s.dispatchCallback(ctx, cb)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("bot stopping")
			return ctx.Err()
		case in, ok := <-messages:
			if !ok {
				return nil
			}
			s.dispatchMessage(ctx, in)
		}
	}
}

func (s *Service) dispatchMessage(ctx context.Context, in models.Incoming) {
	defer s.recoverUpdate(in.ChatID)

	if err := s.HandleUpdate(ctx, in); err != nil {
		s.logger.Error("failed to handle message",
			zap.Error(err),
			zap.Int64("chat_id", in.ChatID),
		)
	}
}

func (s *Service) dispatchCallback(ctx context.Context, cb models.CallbackQuery) {
	defer s.recoverUpdate(cb.ChatID)

	if err := s.HandleCallback(ctx, cb); err != nil {
		s.logger.Error("failed to handle callback",
			zap.Error(err),
			zap.Int64("chat_id", cb.ChatID),
			zap.String("data", cb.Data),
		)
	}
}

// recoverUpdate keeps one bad update from taking the whole bot down.
func (s *Service) recoverUpdate(chatID int64) {
	if r := recover(); r != nil {
		s.logger.Error("panic while handling update",
			zap.Any("panic", r),
			zap.Int64("chat_id", chatID),
		)
		_ = s.telegram.SendMessage(chatID,
			"😔 Something went wrong on our side. Please try again with /start.")
	}
}
