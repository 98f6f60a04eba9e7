package telegram

import tele "gopkg.in/telebot.v3"

func signInMarkup(link string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL("Sign In", link)))
	return markup
}
