package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/meetbot-dev/meetbot/pkg/flow"
)

const cmdStart = "/start"

func (t *Telegram) initHandlers() {
	t.bot.Handle(cmdStart, t.startHandler)
	t.bot.Handle(tele.OnText, t.textHandler)
}

func (t *Telegram) startHandler(c tele.Context) error {
	ownerKey, sessionKey := turnKeys(c)
	msgs, err := t.app.StartFlow(context.Background(), ownerKey, sessionKey)
	if err != nil {
		t.log.Errorf("err starting flow for chat %s: %v", sessionKey, err)
		return c.Send("Something went wrong. Please type /start to begin again.")
	}
	return t.send(c, msgs)
}

func (t *Telegram) textHandler(c tele.Context) error {
	ownerKey, sessionKey := turnKeys(c)
	msgs, err := t.app.HandleText(context.Background(), ownerKey, sessionKey, c.Text())
	switch {
	case errors.Is(err, flow.ErrNoFlow):
		return c.Send("Nothing is being scheduled right now. Type /start to set up a meeting.")
	case err != nil:
		t.log.Errorf("err handling turn for chat %s: %v", sessionKey, err)
		return c.Send("Something went wrong. Please type /start to begin again.")
	}
	return t.send(c, msgs)
}

// send delivers the engine's outbound messages, rendering a sign-in
// prompt as an inline URL button.
func (t *Telegram) send(c tele.Context, msgs []string) error {
	for _, msg := range msgs {
		if strings.HasPrefix(msg, flow.SignInPrompt) {
			link := strings.TrimPrefix(msg, flow.SignInPrompt)
			if err := c.Send("Please sign in to continue.", signInMarkup(link)); err != nil {
				return fmt.Errorf("tg send message faild: %w", err)
			}
			continue
		}
		if err := c.Send(msg); err != nil {
			return fmt.Errorf("tg send message faild: %w", err)
		}
	}
	return nil
}
