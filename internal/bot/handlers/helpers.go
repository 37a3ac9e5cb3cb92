package handlers

import (
	"strconv"

	telebot "gopkg.in/telebot.v3"
)

// SenderID returns the sender's Telegram id as the string key the stores use.
func SenderID(c telebot.Context) string {
	if c == nil || c.Sender() == nil {
		return ""
	}
	return strconv.FormatInt(c.Sender().ID, 10)
}

// SenderUsername returns the sender's username, empty when unknown.
func SenderUsername(c telebot.Context) string {
	if c == nil || c.Sender() == nil {
		return ""
	}
	return c.Sender().Username
}

func parseAmount(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
