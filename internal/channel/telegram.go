package channel

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"gamedev-ai/internal/security"
)

// telegramLimit stays under Telegram's 4096-character message cap.
const telegramLimit = 4000

// TelegramChannel integrates with the Telegram Bot API.
type TelegramChannel struct {
	mu      sync.Mutex
	token   string
	auth    *security.Authorizer
	bot     *tele.Bot
	handler func(InboundMessage)
	running bool
}

// TelegramConfig holds Telegram-specific configuration.
type TelegramConfig struct {
	Token      string
	AllowedIDs []int64
}

// NewTelegramChannel creates a new Telegram channel.
func NewTelegramChannel(cfg TelegramConfig) *TelegramChannel {
	return &TelegramChannel{
		token: cfg.Token,
		auth:  security.NewAuthorizer(cfg.AllowedIDs),
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}
	if t.token == "" {
		return fmt.Errorf("telegram token is empty")
	}
	if !t.auth.Restricted() {
		log.Println("[telegram] warning: no allowed user IDs configured, answering everyone")
	}

	pref := tele.Settings{
		Token:  t.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Printf("[telegram] handler error: %v", err)
		},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}

	// Commands without their own handler fall through to OnText.
	bot.Handle(tele.OnText, func(c tele.Context) error {
		t.receive(c.Sender(), c.Chat().ID, c.Text())
		return nil
	})

	t.bot = bot
	t.running = true

	go func() {
		bot.Start()
	}()

	// Stop bot when context is cancelled
	go func() {
		<-ctx.Done()
		_ = t.Stop(context.Background())
	}()

	return nil
}

// receive applies the allowlist and hands the message on.
func (t *TelegramChannel) receive(sender *tele.User, chatID int64, text string) bool {
	if sender == nil {
		return false
	}
	if !t.auth.IsAllowed(sender.ID) {
		log.Printf("[telegram] unauthorized user: %d (%s)", sender.ID, sender.Username)
		return false // silently ignore
	}

	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()

	if handler == nil {
		return false
	}
	handler(InboundMessage{
		ChannelName: "telegram",
		SenderID:    strconv.FormatInt(sender.ID, 10),
		SenderName:  strings.TrimSpace(sender.FirstName + " " + sender.LastName),
		ChatID:      strconv.FormatInt(chatID, 10),
		Text:        text,
		Timestamp:   time.Now(),
	})
	return true
}

func (t *TelegramChannel) Stop(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil && t.running {
		t.bot.Stop()
	}
	t.running = false
	return nil
}

func (t *TelegramChannel) Send(_ context.Context, msg OutboundMessage) error {
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()

	if bot == nil {
		return fmt.Errorf("telegram bot not started")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	recipient := &tele.Chat{ID: chatID}
	for _, chunk := range splitMessage(msg.Text, telegramLimit) {
		if _, err := bot.Send(recipient, chunk); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func (t *TelegramChannel) OnMessage(handler func(InboundMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *TelegramChannel) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
