// Package handler is the inbound half of the transport shell: it terminates
// the Telegram webhook, decodes updates into dispatcher events, and executes
// the dispatcher's outbound commands through the sender. Events for the same
// conversation are processed one at a time; distinct conversations run
// concurrently.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github-statbot/internal/domain"
	"github-statbot/internal/format"
	"github-statbot/internal/integrations/telegram"
)

// eventTimeout bounds the handling of one update end to end, including the
// remote lookup and the replies.
const eventTimeout = 30 * time.Second

// Dispatcher is the conversation core consumed by the shell.
type Dispatcher interface {
	HandleEvent(ctx context.Context, id domain.ConversationID, ev domain.InboundEvent) []domain.OutboundCommand
}

// Sender delivers replies. *telegram.Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
}

// Handler owns the webhook routes and the per-conversation serialization.
type Handler struct {
	dispatcher Dispatcher
	sender     Sender
	secret     string

	locks    sync.Map // domain.ConversationID -> *sync.Mutex
	inflight sync.WaitGroup
}

// New creates a Handler. secret is the unguessable webhook path segment the
// bot registered with Telegram; requests with any other value are rejected.
func New(dispatcher Dispatcher, sender Sender, secret string) (*Handler, error) {
	if dispatcher == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if sender == nil {
		return nil, errors.New("handler: sender must not be nil")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("handler: webhook secret must not be empty")
	}
	return &Handler{dispatcher: dispatcher, sender: sender, secret: secret}, nil
}

// Routes builds the HTTP surface: liveness endpoints plus the webhook.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("GitHub StatBot is running"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Post("/webhook/{secret}", h.webhook)

	return r
}

// Drain blocks until all in-flight updates have been processed. Called during
// graceful shutdown after the HTTP server stopped accepting requests.
func (h *Handler) Drain() {
	h.inflight.Wait()
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != h.secret {
		http.NotFound(w, r)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("rejecting malformed webhook payload")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Acknowledge before processing so Telegram does not redeliver the
	// update while a lookup is still running.
	w.WriteHeader(http.StatusOK)

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.processUpdate(update)
	}()
}

// processUpdate maps one update onto a dispatcher event and delivers the
// replies, holding the conversation's lock for the whole exchange.
func (h *Handler) processUpdate(update telegram.Update) {
	chatID, event, callback, ok := decodeUpdate(update)

	correlationID := uuid.NewString()
	conversation := domain.ConversationID(strconv.FormatInt(chatID, 10))
	logger := log.With().
		Str("correlation_id", correlationID).
		Str("conversation", string(conversation)).
		Logger()

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if !ok {
		// An undecodable callback still deserves an acknowledgement and a
		// hint; everything else unconsumable is silently dropped.
		if callback != nil {
			if err := h.sender.AnswerCallbackQuery(ctx, callback.ID); err != nil {
				logger.Warn().Err(err).Msg("could not answer callback query")
			}
			if _, err := h.sender.SendMessage(ctx, chatID, format.UnknownAction(), nil); err != nil {
				logger.Error().Err(err).Msg("could not deliver reply")
			}
		}
		return
	}

	lock := h.lockFor(conversation)
	lock.Lock()
	defer lock.Unlock()

	var editTarget int64
	if callback != nil {
		editTarget = messageIDOf(callback)
		if err := h.sender.AnswerCallbackQuery(ctx, callback.ID); err != nil {
			logger.Warn().Err(err).Msg("could not answer callback query")
		}
	}

	commands := h.dispatcher.HandleEvent(ctx, conversation, event)
	for _, cmd := range commands {
		if err := h.deliver(ctx, chatID, editTarget, cmd); err != nil {
			// Delivery failures are logged and dropped; the dispatcher loop
			// must never crash over them.
			logger.Error().Err(err).Msg("could not deliver reply")
		}
	}
}

// deliver executes one outbound command. Edits fall back to a fresh message
// when the update carried no editable message.
func (h *Handler) deliver(ctx context.Context, chatID, editTarget int64, cmd domain.OutboundCommand) error {
	keyboard := menuKeyboard(cmd.Menu)
	if cmd.Edit && editTarget != 0 {
		return h.sender.EditMessageText(ctx, chatID, editTarget, cmd.Body, keyboard)
	}
	_, err := h.sender.SendMessage(ctx, chatID, cmd.Body, keyboard)
	return err
}

// lockFor returns the mutex serializing a conversation's events. Entries are
// never evicted: deleting one while another goroutine holds the mutex would
// let LoadOrStore hand out a second mutex for the same conversation and break
// the ordering guarantee. One idle mutex per chat ever seen is the cost.
func (h *Handler) lockFor(id domain.ConversationID) *sync.Mutex {
	v, _ := h.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// decodeUpdate turns a Telegram update into a conversation key and a
// dispatcher event. Updates the bot does not consume (stickers, photos,
// channel posts) are dropped with ok=false; a callback with an undecodable
// token also returns ok=false but keeps the callback so it can be answered.
func decodeUpdate(update telegram.Update) (chatID int64, event domain.InboundEvent, callback *telegram.CallbackQuery, ok bool) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil {
			log.Warn().Str("callback", cb.ID).Msg("dropping callback query without message")
			return 0, domain.InboundEvent{}, nil, false
		}
		choice, err := domain.DecodeChoice(cb.Data)
		if err != nil {
			log.Warn().Err(err).Msg("undecodable callback token")
			return cb.Message.Chat.ID, domain.InboundEvent{}, cb, false
		}
		return cb.Message.Chat.ID, domain.ChoiceEvent(choice), cb, true

	case update.Message != nil && update.Message.Text != "":
		msg := update.Message
		if name, args, isCommand := parseCommand(msg.Text); isCommand {
			return msg.Chat.ID, domain.CommandEvent(name, args...), nil, true
		}
		return msg.Chat.ID, domain.TextEvent(msg.Text), nil, true

	default:
		return 0, domain.InboundEvent{}, nil, false
	}
}

// parseCommand splits "/repos octocat" style messages. A "@botname" suffix on
// the command, as sent in group chats, is stripped.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	name = strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

// menuKeyboard renders an ordered choice menu as a single inline button row.
func menuKeyboard(menu []domain.MenuChoice) *telegram.InlineKeyboardMarkup {
	if len(menu) == 0 {
		return nil
	}
	row := make([]telegram.InlineKeyboardButton, 0, len(menu))
	for _, choice := range menu {
		row = append(row, telegram.InlineKeyboardButton{Text: choice.Label, CallbackData: choice.Token})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{row}}
}

func messageIDOf(cb *telegram.CallbackQuery) int64 {
	if cb.Message == nil {
		return 0
	}
	return cb.Message.MessageID
}
