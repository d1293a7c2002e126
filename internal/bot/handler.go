package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"linkwise/internal/app"
	"linkwise/internal/config"
	"linkwise/internal/linkstore"
	"linkwise/internal/render"
	"linkwise/internal/session"
	"linkwise/internal/turbodo"
)

const (
	confirmPrefix  = "confirm:"
	confirmTimeout = 2 * time.Minute
	maxChats       = 1024
	chatIdleTTL    = 24 * time.Hour
)

const helpText = `<b>Linkwise</b>
/signin email password - sign in
/signup email password - create an account
/signout - sign out
/add url - save a link (or just send the URL)
/list [query] - show your links, optionally filtered
/refresh - reload links from the server
/delete id - delete a link
/todo - Turbo-Do tasks (/todo add text, /todo check id)`

// Sender is the part of the Telegram API the handlers use.
type Sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
	DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
}

// Handler holds dependencies for the Telegram bot handlers. Every chat gets its own
// session, link store and task board.
type Handler struct {
	bot      *tgbot.Bot
	sender   Sender
	ctx      context.Context
	identity session.Provider
	links    linkstore.API
	log      logrus.FieldLogger

	chats *expirable.LRU[int64, *chat]

	mu       sync.Mutex
	confirms map[string]chan bool
}

// NewHandler creates a new bot handler instance. ctx bounds the requests started by
// session changes.
func NewHandler(ctx context.Context, cfg config.Config, identity session.Provider, links linkstore.API, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := newHandler(ctx, identity, links, chatIdleTTL, log)

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.sender = b

	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func newHandler(ctx context.Context, identity session.Provider, links linkstore.API, idleTTL time.Duration, log logrus.FieldLogger) *Handler {
	h := &Handler{
		ctx:      ctx,
		identity: identity,
		links:    links,
		log:      log,
		confirms: make(map[string]chan bool),
	}
	h.chats = expirable.NewLRU[int64, *chat](maxChats, func(id int64, c *chat) {
		h.log.WithField("chat_id", id).Debug("Dropping idle chat")
		c.close()
	}, idleTTL)
	return h
}

// registerHandlers sets up the command and message handlers.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/signin", tgbot.MatchTypePrefix, h.signInHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/signup", tgbot.MatchTypePrefix, h.signUpHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/signout", tgbot.MatchTypeExact, h.signOutHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/add", tgbot.MatchTypePrefix, h.addHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/list", tgbot.MatchTypePrefix, h.listHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/refresh", tgbot.MatchTypeExact, h.refreshHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/delete", tgbot.MatchTypePrefix, h.deleteHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/todo", tgbot.MatchTypePrefix, h.todoHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, confirmPrefix, tgbot.MatchTypePrefix, h.confirmHandler)
	h.log.Info("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) send(chatID int64, text string, markup models.ReplyMarkup) {
	_, err := h.sender.SendMessage(h.ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) chatFor(chatID int64) *chat {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.chats.Get(chatID); ok {
		// Get does not extend the expiry; re-adding does.
		h.chats.Add(chatID, c)
		return c
	}
	log := h.log.WithField("chat_id", chatID)
	c := &chat{id: chatID, h: h, done: make(map[int]bool)}
	gate := session.NewGate(h.identity, log)
	store := linkstore.New(h.links, gate, c, log)
	c.board = turbodo.NewBoard()
	c.board.OnChange(c.onTasks)
	c.ctrl = app.New(h.ctx, gate, store, c, log)
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	h.chats.Add(chatID, c)
	return c
}

// args returns the words after the command.
func args(text string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(rest)
}

func (h *Handler) message(update *models.Update) (*models.Message, logrus.FieldLogger, bool) {
	msg := update.Message
	if msg == nil {
		return nil, nil, false
	}
	cmd, _, _ := strings.Cut(msg.Text, " ")
	return msg, h.log.WithFields(logrus.Fields{
		"chat_id": msg.Chat.ID,
		"command": cmd,
	}), true
}

// startHandler handles the /start and /help commands.
func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, log, ok := h.message(update)
	if !ok {
		return
	}
	log.Info("Received /start command")
	c := h.chatFor(msg.Chat.ID)
	text := helpText
	if email := c.ctrl.Email(); email != "" {
		text += "\n\nSigned in as " + html.EscapeString(email)
	}
	h.send(msg.Chat.ID, text, nil)
}

func (h *Handler) credentials(ctx context.Context, update *models.Update, signUp bool) {
	msg, log, ok := h.message(update)
	if !ok {
		return
	}
	// The message carries a password; remove it from the chat history.
	if _, err := h.sender.DeleteMessage(ctx, &tgbot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID}); err != nil {
		log.WithError(err).Warn("Failed to delete credentials message")
	}
	email, password, _ := strings.Cut(args(msg.Text), " ")
	c := h.chatFor(msg.Chat.ID)
	var err error
	if signUp {
		err = c.ctrl.SignUp(ctx, email, strings.TrimSpace(password))
	} else {
		err = c.ctrl.SignIn(ctx, email, strings.TrimSpace(password))
	}
	if err != nil {
		log.WithError(err).Info("Authentication failed")
	}
}

func (h *Handler) signInHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	h.credentials(ctx, update, false)
}

func (h *Handler) signUpHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	h.credentials(ctx, update, true)
}

func (h *Handler) signOutHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, _, ok := h.message(update)
	if !ok {
		return
	}
	if err := h.chatFor(msg.Chat.ID).ctrl.SignOut(ctx); err != nil {
		h.send(msg.Chat.ID, "Sign out failed. Please try again.", nil)
	}
}

// signedIn returns the chat when it has a session, telling the user otherwise.
func (h *Handler) signedIn(chatID int64) (*chat, bool) {
	c := h.chatFor(chatID)
	if c.ctrl.Email() == "" {
		h.send(chatID, "Please /signin first.", nil)
		return nil, false
	}
	return c, true
}

func (h *Handler) addLink(ctx context.Context, chatID int64, url string, log logrus.FieldLogger) {
	c, ok := h.signedIn(chatID)
	if !ok {
		return
	}
	if err := c.ctrl.AddLink(ctx, url); err != nil {
		log.WithError(err).Info("Add link failed")
		return
	}
	log.WithField("url", url).Info("Link added")
}

func (h *Handler) addHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, log, ok := h.message(update)
	if !ok {
		return
	}
	h.addLink(ctx, msg.Chat.ID, args(msg.Text), log)
}

func (h *Handler) listHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, _, ok := h.message(update)
	if !ok {
		return
	}
	if c, ok := h.signedIn(msg.Chat.ID); ok {
		c.ctrl.Search(args(msg.Text))
	}
}

func (h *Handler) refreshHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, _, ok := h.message(update)
	if !ok {
		return
	}
	if c, ok := h.signedIn(msg.Chat.ID); ok {
		if err := c.ctrl.Refresh(ctx); err != nil {
			h.send(msg.Chat.ID, "Failed to load links.", nil)
		}
	}
}

func (h *Handler) deleteHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, _, ok := h.message(update)
	if !ok {
		return
	}
	c, ok := h.signedIn(msg.Chat.ID)
	if !ok {
		return
	}
	id := args(msg.Text)
	if id == "" {
		h.send(msg.Chat.ID, "Usage: /delete id", nil)
		return
	}
	if err := c.ctrl.DeleteLink(ctx, id); err != nil {
		h.send(msg.Chat.ID, "Failed to delete link.", nil)
	}
}

func (h *Handler) todoHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, _, ok := h.message(update)
	if !ok {
		return
	}
	c := h.chatFor(msg.Chat.ID)
	sub, rest, _ := strings.Cut(args(msg.Text), " ")
	rest = strings.TrimSpace(rest)
	switch sub {
	case "", "list":
	case "add":
		if _, err := c.board.AddTask(rest); err != nil {
			h.send(msg.Chat.ID, "Please enter a task.", nil)
			return
		}
	case "check":
		id, err := strconv.Atoi(rest)
		if err != nil {
			h.send(msg.Chat.ID, "Usage: /todo check id", nil)
			return
		}
		if err := c.board.Check(id); err != nil {
			h.send(msg.Chat.ID, html.EscapeString(err.Error()), nil)
			return
		}
	default:
		h.send(msg.Chat.ID, "Usage: /todo [add text | check id]", nil)
		return
	}
	h.send(msg.Chat.ID, todoText(c.board.Tasks()), nil)
}

func todoText(tasks []turbodo.Task) string {
	if len(tasks) == 0 {
		return "No tasks."
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, html.EscapeString(t.Line()))
	}
	return strings.Join(lines, "\n")
}

// defaultHandler treats any other text that looks like a URL as a link to save.
func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg, log, ok := h.message(update)
	if !ok {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		h.addLink(ctx, msg.Chat.ID, text, log)
		return
	}
	log.Debug("Received unhandled message (default handler)")
	h.send(msg.Chat.ID, "Send me a link to save, or /help.", nil)
}

// ask sends prompt with Yes/No buttons to chatID and waits for the answer. An
// unanswered prompt counts as declined.
func (h *Handler) ask(ctx context.Context, chatID int64, prompt string) (bool, error) {
	nonce := uuid.NewString()
	answer := make(chan bool, 1)
	h.mu.Lock()
	h.confirms[nonce] = answer
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.confirms, nonce)
		h.mu.Unlock()
	}()

	h.send(chatID, html.EscapeString(prompt), &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Yes", CallbackData: confirmPrefix + nonce + ":yes"},
			{Text: "No", CallbackData: confirmPrefix + nonce + ":no"},
		}},
	})

	timer := time.NewTimer(confirmTimeout)
	defer timer.Stop()
	select {
	case ok := <-answer:
		return ok, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// confirmHandler receives the Yes/No button presses sent by ask.
func (h *Handler) confirmHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	nonce, choice, _ := strings.Cut(strings.TrimPrefix(cb.Data, confirmPrefix), ":")

	h.mu.Lock()
	answer, ok := h.confirms[nonce]
	h.mu.Unlock()

	reply := "This prompt has expired."
	if ok {
		select {
		case answer <- choice == "yes":
			reply = "Cancelled."
			if choice == "yes" {
				reply = "Deleting..."
			}
		default:
		}
	}
	if _, err := h.sender.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
		Text:            reply,
	}); err != nil {
		h.log.WithError(err).Error("Failed to answer callback query")
	}
}

// chat is one Telegram conversation. It is the View and Confirmer for its controller.
type chat struct {
	id    int64
	h     *Handler
	ctrl  *app.Controller
	board *turbodo.Board

	mu     sync.Mutex
	ready  bool
	screen string
	done   map[int]bool
}

func (c *chat) close() {
	c.ctrl.Close()
	c.board.Close()
}

func (c *chat) ShowAuth() {
	c.mu.Lock()
	ready := c.ready
	c.screen = "auth"
	c.mu.Unlock()
	if ready {
		c.h.send(c.id, "You are signed out. Use /signin email password or /signup email password.", nil)
	}
}

func (c *chat) ShowApp(email string) {
	c.mu.Lock()
	c.screen = "app"
	c.mu.Unlock()
	c.h.send(c.id, "Signed in as "+html.EscapeString(email), nil)
}

func (c *chat) RenderLinks(items []render.Item) {
	c.mu.Lock()
	show := c.ready && c.screen == "app"
	c.mu.Unlock()
	if show {
		for _, text := range render.Telegram(items) {
			c.h.send(c.id, text, nil)
		}
	}
}

func (c *chat) AuthError(msg string) {
	c.h.send(c.id, "⚠️ "+html.EscapeString(msg), nil)
}

func (c *chat) AddError(msg string) {
	c.h.send(c.id, "⚠️ "+html.EscapeString(msg), nil)
}

func (c *chat) Confirm(ctx context.Context, prompt string) (bool, error) {
	return c.h.ask(ctx, c.id, prompt)
}

func (c *chat) onTasks(tasks []turbodo.Task) {
	var finished []string
	c.mu.Lock()
	for _, t := range tasks {
		if t.State == turbodo.Done && !c.done[t.ID] {
			c.done[t.ID] = true
			finished = append(finished, t.Text)
		}
	}
	c.mu.Unlock()
	for _, text := range finished {
		c.h.send(c.id, "🏁 "+html.EscapeString(text), nil)
	}
}
