package alice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"AliceBridge/internal/cache"
	"AliceBridge/internal/config"
	"AliceBridge/internal/provider"
	"AliceBridge/internal/session"
	"AliceBridge/internal/telemetry"
)

// Recorder archives dialog turns
type Recorder interface {
	Record(ctx context.Context, sessionID, variant string, turns ...session.Message) error
}

// Bridge turns skill requests into upstream completions
type Bridge struct {
	variant  config.Variant
	store    session.Store
	provider provider.Provider
	closing  *ClosingMatcher
	cache    *cache.ReplyCache
	archive  Recorder
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// BridgeOption configures a Bridge
type BridgeOption func(*Bridge)

// WithClosingWords replaces the words that end a dialog
func WithClosingWords(words []string) BridgeOption {
	return func(b *Bridge) {
		b.closing = NewClosingMatcher(words)
	}
}

// WithReplyCache enables reuse of replies for identical dialog windows
func WithReplyCache(c *cache.ReplyCache) BridgeOption {
	return func(b *Bridge) {
		b.cache = c
	}
}

// WithArchive records every exchange
func WithArchive(r Recorder) BridgeOption {
	return func(b *Bridge) {
		b.archive = r
	}
}

// WithMetrics counts request outcomes
func WithMetrics(m *telemetry.Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// NewBridge creates a bridge for one variant
func NewBridge(v config.Variant, store session.Store, p provider.Provider, logger *slog.Logger, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		variant:  v,
		store:    store,
		provider: p,
		closing:  NewClosingMatcher(config.Default().ClosingWords),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) count(outcome string) {
	if b.metrics != nil {
		b.metrics.Requests.WithLabelValues(outcome).Inc()
	}
}

func (b *Bridge) apologize(logger *slog.Logger, msg string, err error) Response {
	logger.Error(msg, "error", err)
	b.count(telemetry.OutcomeApology)
	return reply(b.variant.Apology, false)
}

// Handle produces the skill response for a request. It never fails: any
// error is logged and answered with the variant's apology.
func (b *Bridge) Handle(ctx context.Context, req *Request) Response {
	logger := LoggerFrom(ctx, b.logger)

	if req == nil || req.Session == nil || req.Request == nil || req.Session.SessionID == "" {
		b.count(telemetry.OutcomeInvalid)
		return reply(InvalidRequestText, false)
	}

	id := req.Session.SessionID
	logger = logger.With("session_id", id)

	sess, err := b.store.GetOrCreate(ctx, id, req.Session.New)
	if err != nil {
		return b.apologize(logger, "failed to load session", err)
	}

	text := strings.TrimSpace(req.Request.OriginalUtterance)
	if text == "" {
		welcome := session.NewMessage(session.RoleAssistant, b.variant.Welcome, b.now())
		if err := b.store.Append(ctx, id, welcome); err != nil {
			logger.Warn("failed to store welcome", "error", err)
		}
		b.count(telemetry.OutcomeWelcome)
		return reply(b.variant.Welcome, false)
	}

	if b.closing.Match(text) {
		logger.Info("dialog closed by user")
		b.count(telemetry.OutcomeFarewell)
		return reply(FarewellText, true)
	}

	userTurn := session.NewMessage(session.RoleUser, text, b.now())
	if err := b.store.Append(ctx, id, userTurn); err != nil {
		return b.apologize(logger, "failed to store user turn", err)
	}
	sess.Messages = append(sess.Messages, userTurn)
	window := sess.Window(b.variant.ContextWindow)

	outcome := telemetry.OutcomeReply
	var answer string
	var cacheKey string
	if b.cache != nil {
		cacheKey = cache.GenerateCacheKey(b.variant.SystemPrompt, window)
		if cached, ok := b.cache.Get(cacheKey); ok {
			logger.Debug("cache hit", "key", cacheKey[:16])
			answer = cached
			outcome = telemetry.OutcomeCached
		}
	}

	if answer == "" {
		start := time.Now()
		answer, err = b.provider.Complete(ctx, b.variant.SystemPrompt, window)
		if err != nil {
			return b.apologize(logger, "upstream call failed", err)
		}
		answer = Truncate(answer)
		logger.Info("upstream replied",
			"provider", b.provider.Name(),
			"model", b.provider.Model(),
			"turns", len(window),
			"reply_chars", len([]rune(answer)),
			"duration", time.Since(start),
		)
		if b.cache != nil {
			b.cache.Put(cacheKey, answer)
		}
	}

	assistantTurn := session.NewMessage(session.RoleAssistant, answer, b.now())
	if err := b.store.Append(ctx, id, assistantTurn); err != nil {
		logger.Warn("failed to store reply", "error", err)
	}

	if b.archive != nil {
		if err := b.archive.Record(ctx, id, b.variant.Name, userTurn, assistantTurn); err != nil {
			logger.Warn("failed to archive exchange", "error", err)
		}
	}

	b.count(outcome)
	return reply(answer, false)
}

// Sessions returns the number of live sessions
func (b *Bridge) Sessions(ctx context.Context) (int, error) {
	return b.store.Len(ctx)
}
