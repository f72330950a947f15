// Package chat answers farmer questions with canned, keyword-matched replies
// in English or Hindi and keeps the running transcript of each conversation.
package chat

import (
	"strings"

	"github.com/couchcryptid/agri-assist-service/internal/catalog"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
)

// IntentGeneral is reported when no keyword group matches.
const IntentGeneral = "general"

const replyConfidence = 0.9

// Response is a bot reply with the quick-reply chips shown next to it.
type Response struct {
	Text              string   `json:"text"`
	Intent            string   `json:"intent"`
	Suggestions       []string `json:"suggestions"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Confidence        float64  `json:"confidence"`
}

// Responder maps a message to a canned reply. It holds no state and is safe
// for concurrent use.
type Responder struct {
	intents []catalog.Intent
	books   map[string]catalog.Phrasebook
}

// NewResponder creates a responder over the catalog's phrasebooks.
func NewResponder(c *catalog.Catalog) *Responder {
	return &Responder{intents: c.Intents, books: c.Phrasebooks}
}

// Reply returns the canned text for message in language. Keyword groups are
// tried in order (weather, price, pest, crop) and the first hit wins.
// Languages other than Hindi get English.
func (r *Responder) Reply(message, language string) string {
	return r.Respond(message, language).Text
}

// Respond is Reply plus the intent and the suggestion chips.
func (r *Responder) Respond(message, language string) Response {
	book := r.book(language)
	intent := r.classify(message)

	text := book.Default
	if intent != IntentGeneral {
		text = book.Replies[intent]
	}

	return Response{
		Text:              text,
		Intent:            intent,
		Suggestions:       append([]string(nil), book.Suggestions...),
		FollowUpQuestions: append([]string(nil), book.FollowUps...),
		Confidence:        replyConfidence,
	}
}

// Greeting is the opening bot line for a new conversation.
func (r *Responder) Greeting(language string) string {
	return r.book(language).Greeting
}

func (r *Responder) classify(message string) string {
	lower := strings.ToLower(message)
	for _, in := range r.intents {
		for _, kw := range in.Keywords {
			if strings.Contains(lower, kw) {
				return in.Name
			}
		}
	}
	return IntentGeneral
}

func (r *Responder) book(language string) catalog.Phrasebook {
	return r.books[domain.NormalizeLanguage(language)]
}
