package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// App is the scheduling facade the bot drives. ownerKey is the telegram
// user ID, sessionKey the chat ID, both as decimal strings.
type App interface {
	StartFlow(ctx context.Context, ownerKey, sessionKey string) ([]string, error)
	HandleText(ctx context.Context, ownerKey, sessionKey, text string) ([]string, error)
}

type Telegram struct {
	log *logrus.Entry
	bot *tele.Bot
	app App
}

type Notifier struct {
	log *logrus.Entry
	bot *tele.Bot
}

func New(log *logrus.Logger, bot *tele.Bot, app App) (*Telegram, error) {
	t := Telegram{
		log: log.WithField("component", "telegram"),
		bot: bot,
		app: app,
	}
	t.initHandlers()
	return &t, nil
}

func NewBot(token string) (*tele.Bot, error) {
	config := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(config)
	if err != nil {
		return nil, fmt.Errorf("new bot faild: %w", err)
	}
	return b, nil
}

func NewNotifier(log *logrus.Logger, bot *tele.Bot) *Notifier {
	return &Notifier{
		log: log.WithField("component", "notifier"),
		bot: bot,
	}
}

// Notify pushes a message into a chat outside a handler, used when the
// REST sign-in callback resumes a flow.
func (n *Notifier) Notify(_ context.Context, message string, chatID int64) error {
	if _, err := n.bot.Send(tele.ChatID(chatID), message); err != nil {
		return fmt.Errorf("tg send message faild: %w", err)
	}
	return nil
}

func (t *Telegram) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()
	t.log.Infof("Starting telegram bot as %v", t.bot.Me.Username)
	t.bot.Start()
}

func turnKeys(c tele.Context) (ownerKey, sessionKey string) {
	return strconv.FormatInt(c.Sender().ID, 10), strconv.FormatInt(c.Chat().ID, 10)
}
