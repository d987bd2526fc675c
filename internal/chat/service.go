// Package chat is the turn-processing entry point: it loads a session,
// runs one dialogue turn against a private copy and commits the result.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/dialogue"
	"lumiere-assistant-backend/internal/session"
	"lumiere-assistant-backend/internal/store"
)

var ErrEmptyMessage = errors.New("message is required")

type Input struct {
	SessionID string
	Message   string
	Email     string
	// Allergens replace the session's set when non-empty.
	Allergens []string
}

type Output struct {
	SessionID     string
	Reply         string
	Intent        dialogue.Intent
	Order         []session.OrderLine
	SubtotalCents int64
}

// Observer receives per-turn timings and the live session count.
type Observer interface {
	ObserveTurn(d time.Duration)
	SetSessions(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveTurn(time.Duration) {}
func (nopObserver) SetSessions(int)           {}

type Service struct {
	store        store.Store
	locks        *store.KeyedMutex
	handler      *dialogue.Handler
	observer     Observer
	logger       *zap.Logger
	historyLimit int
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHistoryLimit caps the messages kept per session. Zero keeps all.
func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.historyLimit = n }
}

func NewService(st store.Store, h *dialogue.Handler, opts ...Option) *Service {
	s := &Service{
		store:    st,
		locks:    store.NewKeyedMutex(),
		handler:  h,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.Named("chat")
	return s
}

// Chat runs one turn. Turns on the same session are serialized; the stored
// state changes only if the whole turn succeeds.
func (s *Service) Chat(ctx context.Context, in Input) (Output, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return Output{}, store.ErrInvalidSessionID
	}
	if strings.TrimSpace(in.Message) == "" {
		return Output{}, ErrEmptyMessage
	}

	start := time.Now()
	unlock := s.locks.Lock(in.SessionID)
	defer unlock()

	current, ok, err := s.store.Get(ctx, in.SessionID)
	if err != nil {
		return Output{}, err
	}
	if !ok {
		current = session.New()
		s.logger.Debug("new session", zap.String("session_id", in.SessionID))
	}

	st := current.Clone()
	if len(in.Allergens) > 0 {
		st.SetAllergens(in.Allergens)
	}

	reply, intent := s.handler.Handle(ctx, st, dialogue.TurnInput{Message: in.Message, Email: in.Email})
	st.TrimHistory(s.historyLimit)

	if err := s.store.Put(ctx, in.SessionID, st); err != nil {
		s.logger.Error("failed to commit session", zap.String("session_id", in.SessionID), zap.Error(err))
		return Output{}, err
	}

	s.observer.ObserveTurn(time.Since(start))
	s.reportSessions()
	s.logger.Info("turn handled",
		zap.String("session_id", in.SessionID),
		zap.String("intent", string(intent)),
		zap.Int("order_lines", len(st.Order)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Output{
		SessionID:     in.SessionID,
		Reply:         reply,
		Intent:        intent,
		Order:         append([]session.OrderLine{}, st.Order...),
		SubtotalCents: st.SubtotalCents,
	}, nil
}

// Reset deletes a session. Deleting an unknown session is not an error.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return store.ErrInvalidSessionID
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.reportSessions()
	return nil
}

// Session returns a copy of the stored state.
func (s *Service) Session(ctx context.Context, sessionID string) (*session.State, bool, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *Service) reportSessions() {
	if counter, ok := s.store.(interface{ Len() int }); ok {
		s.observer.SetSessions(counter.Len())
	}
}
