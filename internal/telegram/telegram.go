package telegram

import (
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Settings 机器人配置
type Settings struct {
	Token  string
	ChatID string
	Client *http.Client
}

// Telegram 只用于推送通知，不处理指令
type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot
	chat     tele.ChatID
}

func NewTelegram(logger *zap.Logger, settings Settings) (*Telegram, error) {
	if settings.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	chatID := cast.ToInt64(settings.ChatID)
	if chatID == 0 {
		return nil, errors.New("telegram chat id is invalid")
	}
	if settings.Client == nil {
		settings.Client = &http.Client{Timeout: 10 * time.Second}
	}

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdownV2,
		Token:     settings.Token,
		Client:    settings.Client,
		Offline:   true,
	})
	if err != nil {
		return nil, err
	}

	return &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
		chat:     tele.ChatID(chatID),
	}, nil
}

// Notify 发送 MarkdownV2 消息，调用方负责转义
func (r *Telegram) Notify(msg string) error {
	_, err := r.client.Send(r.chat, msg, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
	if err != nil {
		r.logger.Warn("telegram notify failed", zap.Error(err))
	}
	return err
}
