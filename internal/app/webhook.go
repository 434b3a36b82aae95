package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deusflow/newsbot/internal/line"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/storage"
)

const (
	replyFull         = "很抱歉，目前訂閱人數已達上限，暫時無法提供服務。"
	replyNotFollowing = "您尚未訂閱新聞服務。請先關注此帳號以開始接收新聞。"
	replyUnsubscribed = "已成功取消訂閱。如需重新訂閱，請重新關注此帳號。"
)

var (
	helpKeywords        = []string{"幫助", "help", "說明", "指令"}
	unsubscribeKeywords = []string{"取消", "unsubscribe", "退訂"}
	statusKeywords      = []string{"狀態", "status", "訂閱"}
)

// HandleWebhook processes verified LINE events. Every event is attempted;
// the returned error joins the failures.
func (s *Service) HandleWebhook(ctx context.Context, events []line.Event) error {
	var errs []error
	for _, ev := range events {
		if ev.Source.UserID == "" {
			continue
		}
		var err error
		switch {
		case ev.Type == line.EventFollow:
			err = s.handleFollow(ctx, ev)
		case ev.Type == line.EventUnfollow:
			err = s.handleUnfollow(ctx, ev)
		case ev.IsText():
			err = s.handleMessage(ctx, ev)
		default:
			logger.Debug("ignoring webhook event", "type", ev.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s event from %s: %w", ev.Type, ev.Source.UserID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) handleFollow(ctx context.Context, ev line.Event) error {
	userID := ev.Source.UserID
	logger.Info("user followed the bot", "user_id", userID)

	count, err := s.store.CountSubscribers(ctx)
	if err != nil {
		return err
	}
	if count >= s.opts.MaxSubscribers {
		logger.Warn("subscriber limit reached", "count", count, "max", s.opts.MaxSubscribers)
		return s.reply(ctx, ev.ReplyToken, replyFull)
	}

	if err := s.store.AddSubscriber(ctx, userID, s.now()); err != nil {
		return err
	}
	return s.reply(ctx, ev.ReplyToken, s.welcomeText())
}

func (s *Service) handleUnfollow(ctx context.Context, ev line.Event) error {
	logger.Info("user unfollowed the bot", "user_id", ev.Source.UserID)
	return s.store.RemoveSubscriber(ctx, ev.Source.UserID)
}

func (s *Service) handleMessage(ctx context.Context, ev line.Event) error {
	userID := ev.Source.UserID
	text := ev.Message.Text
	logger.Info("received message", "user_id", userID, "text", text)

	sub, err := s.store.GetSubscriber(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.reply(ctx, ev.ReplyToken, replyNotFollowing)
	}
	if err != nil {
		return err
	}

	var answer string
	msg := strings.ToLower(strings.TrimSpace(text))
	switch {
	case containsAny(msg, helpKeywords):
		answer = s.helpText()
	case containsAny(msg, unsubscribeKeywords):
		if err := s.store.RemoveSubscriber(ctx, userID); err != nil {
			return err
		}
		answer = replyUnsubscribed
	case containsAny(msg, statusKeywords):
		answer = fmt.Sprintf("您的訂閱狀態：\n• 狀態：已訂閱\n• 訂閱日期：%s\n• 推送時間：每天%s",
			sub.JoinedAt.Format("2006-01-02"), strings.Join(s.opts.PushTimes, "、"))
	default:
		answer = fmt.Sprintf("收到您的訊息：「%s」\n\n如需幫助，請發送「幫助」查看可用指令。", text)
	}
	return s.reply(ctx, ev.ReplyToken, answer)
}

func (s *Service) welcomeText() string {
	return fmt.Sprintf("感謝您的訂閱！\n每天%s，您將收到精選的科技和商業新聞摘要。\n\n您可以發送任何訊息來測試機器人回應。",
		strings.Join(s.opts.PushTimes, "和"))
}

func (s *Service) helpText() string {
	return "可用指令：\n• 發送「狀態」查看訂閱狀態\n• 發送「取消」取消訂閱\n• 每天" +
		strings.Join(s.opts.PushTimes, "和") + "會自動推送新聞"
}

func (s *Service) reply(ctx context.Context, token, text string) error {
	if s.replier == nil || token == "" {
		logger.Debug("no replier configured, dropping reply")
		return nil
	}
	if err := s.replier.Reply(ctx, token, text); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
