package domain

import (
	"strings"
	"time"
)

// Chat senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Supported languages.
const (
	LangEnglish = "en"
	LangHindi   = "hi"
)

// ChatTurn is one message in a conversation.
type ChatTurn struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// NormalizeLanguage maps a language tag such as "hi", "hi-IN" or "en-US" to a
// supported language. Anything that is not Hindi falls back to English.
func NormalizeLanguage(lang string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), LangHindi) {
		return LangHindi
	}
	return LangEnglish
}
