package chat

import (
	"container/list"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

var (
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrConversationNotFound is returned for an unknown conversation ID.
	ErrConversationNotFound = errors.New("conversation not found")
)

// Exchange is the ordered transcript of one conversation. Turns are only
// ever appended.
type Exchange struct {
	mu    sync.RWMutex
	turns []domain.ChatTurn
}

// Append adds a turn to the end of the transcript.
func (e *Exchange) Append(t domain.ChatTurn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = append(e.turns, t)
}

// Turns returns a copy of the transcript.
func (e *Exchange) Turns() []domain.ChatTurn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]domain.ChatTurn(nil), e.turns...)
}

// Len reports the number of turns.
func (e *Exchange) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.turns)
}

// Reply is the assistant's answer to one message.
type Reply struct {
	ConversationID string          `json:"conversation_id"`
	Turn           domain.ChatTurn `json:"turn"`
	Response
}

// Default conversation limits.
const (
	DefaultMaxConversations = 1000
	DefaultConversationTTL  = 24 * time.Hour
)

// Assistant runs conversations on top of a Responder. Each reply is held back
// by a fixed delay to mimic a remote model. Conversations are kept in memory,
// least recently used first out once the limit is reached, and dropped after
// sitting idle for the TTL.
type Assistant struct {
	responder *Responder
	clock     clockwork.Clock
	delay     time.Duration
	metrics   *observability.Metrics
	maxConvs  int
	ttl       time.Duration

	mu            sync.Mutex
	conversations map[string]*list.Element
	recency       *list.List // front is most recently used
}

type conversation struct {
	id       string
	exchange *Exchange
	lastUsed time.Time
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithMaxConversations caps how many conversations are held at once.
func WithMaxConversations(n int) AssistantOption {
	return func(a *Assistant) {
		if n > 0 {
			a.maxConvs = n
		}
	}
}

// WithConversationTTL sets how long an idle conversation is kept. Zero keeps
// conversations until they are evicted by the size limit.
func WithConversationTTL(d time.Duration) AssistantOption {
	return func(a *Assistant) { a.ttl = d }
}

// NewAssistant creates an assistant.
func NewAssistant(responder *Responder, clock clockwork.Clock, delay time.Duration, metrics *observability.Metrics, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		responder:     responder,
		clock:         clock,
		delay:         delay,
		metrics:       metrics,
		maxConvs:      DefaultMaxConversations,
		ttl:           DefaultConversationTTL,
		conversations: make(map[string]*list.Element),
		recency:       list.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send appends message and the bot's reply to the conversation. An empty
// conversationID starts a new conversation seeded with the greeting. Both
// turns are recorded only once the reply is ready, so a cancelled request
// leaves the transcript untouched.
func (a *Assistant) Send(ctx context.Context, conversationID, message, language string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}
	language = domain.NormalizeLanguage(language)

	if conversationID != "" {
		if _, err := a.lookup(conversationID); err != nil {
			return Reply{}, err
		}
	}
	if a.delay > 0 {
		select {
		case <-a.clock.After(a.delay):
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}

	var ex *Exchange
	if conversationID == "" {
		conversationID, ex = a.create(language)
	} else {
		var err error
		if ex, err = a.lookup(conversationID); err != nil {
			return Reply{}, err
		}
	}

	resp := a.responder.Respond(message, language)
	user := a.turn(domain.SenderUser, message, language)
	bot := a.turn(domain.SenderBot, resp.Text, language)
	ex.Append(user)
	ex.Append(bot)
	a.metrics.ChatMessages.WithLabelValues(language, resp.Intent).Inc()

	return Reply{ConversationID: conversationID, Turn: bot, Response: resp}, nil
}

// History returns the transcript of a conversation.
func (a *Assistant) History(conversationID string) ([]domain.ChatTurn, error) {
	ex, err := a.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	return ex.Turns(), nil
}

// Len reports how many conversations are held.
func (a *Assistant) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conversations)
}

func (a *Assistant) lookup(id string) (*Exchange, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	elem, ok := a.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	conv := elem.Value.(*conversation)
	now := a.clock.Now()
	if a.expired(conv, now) {
		a.remove(elem)
		return nil, ErrConversationNotFound
	}
	conv.lastUsed = now
	a.recency.MoveToFront(elem)
	return conv.exchange, nil
}

func (a *Assistant) create(language string) (string, *Exchange) {
	ex := &Exchange{}
	ex.Append(a.turn(domain.SenderBot, a.responder.Greeting(language), language))
	conv := &conversation{id: uuid.NewString(), exchange: ex, lastUsed: a.clock.Now()}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.conversations[conv.id] = a.recency.PushFront(conv)
	for back := a.recency.Back(); back != nil; back = a.recency.Back() {
		if len(a.conversations) <= a.maxConvs && !a.expired(back.Value.(*conversation), conv.lastUsed) {
			break
		}
		a.remove(back)
	}
	return conv.id, ex
}

func (a *Assistant) expired(c *conversation, now time.Time) bool {
	return a.ttl > 0 && now.Sub(c.lastUsed) >= a.ttl
}

func (a *Assistant) remove(elem *list.Element) {
	delete(a.conversations, elem.Value.(*conversation).id)
	a.recency.Remove(elem)
}

func (a *Assistant) turn(sender, text, language string) domain.ChatTurn {
	return domain.ChatTurn{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Language:  language,
		Timestamp: a.clock.Now(),
	}
}
