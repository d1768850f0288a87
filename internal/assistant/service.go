package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

const (
	maxMessageLen  = 2000
	historyLimit   = 100
	checkListLimit = 50
)

// Store persists chat transcripts and symptom checks.
type Store interface {
	SaveMessage(ctx context.Context, m model.ChatMessage) (model.ChatMessage, error)
	RecentMessages(ctx context.Context, userID uint64, limit int) ([]model.ChatMessage, error)
	SaveSymptomCheck(ctx context.Context, c model.SymptomCheck) (model.SymptomCheck, error)
	ListSymptomChecks(ctx context.Context, userID uint64, limit int) ([]model.SymptomCheck, error)
	GetSymptomCheck(ctx context.Context, id uint64) (model.SymptomCheck, error)
}

// Observer records completion outcomes. May be nil.
type Observer interface {
	ObserveLLM(operation, outcome string)
}

type Service struct {
	completer Completer
	store     Store
	timeout   time.Duration
	number    string
	log       zerolog.Logger
	observer  Observer
	now       func() time.Time
}

type Option func(*Service)

func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

// WithEmergencyNumber sets the number quoted by the static replies.
func WithEmergencyNumber(n string) Option { return func(s *Service) { s.number = n } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService builds the assistant. completer may be nil, in which case every
// call degrades without contacting a model.
func NewService(completer Completer, store Store, timeout time.Duration, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		completer: completer,
		store:     store,
		timeout:   timeout,
		number:    "112",
		log:       log.With().Str("component", "assistant").Logger(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// complete runs one completion under the configured timeout. ok is false
// when the model is absent, failed or timed out.
func (s *Service) complete(ctx context.Context, op, prompt string) (string, bool) {
	if s.completer == nil {
		s.observe(op, "degraded")
		return "", false
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.log.Warn().Err(err).Str("operation", op).Msg("completion failed, using defaults")
		s.observe(op, "degraded")
		return "", false
	}
	s.observe(op, "ok")
	return raw, true
}

func (s *Service) observe(op, outcome string) {
	if s.observer != nil {
		s.observer.ObserveLLM(op, outcome)
	}
}

func (in SymptomInput) validate() (SymptomInput, error) {
	in.Symptoms = nonEmpty(in.Symptoms)
	if len(in.Symptoms) == 0 {
		return in, apperr.Validation("symptoms", "at least one symptom is required")
	}
	if in.Age <= 0 || in.Age > 150 {
		return in, apperr.Validation("age", "age must be between 1 and 150")
	}
	in.Gender = strings.TrimSpace(in.Gender)
	if in.Gender == "" {
		return in, apperr.Validation("gender", "gender is required")
	}
	in.MedicalHistory = strings.TrimSpace(in.MedicalHistory)
	return in, nil
}

// AnalyzeSymptoms asks the model for likely conditions. It only fails on
// invalid input.
func (s *Service) AnalyzeSymptoms(ctx context.Context, in SymptomInput) (SymptomAnalysis, error) {
	in, err := in.validate()
	if err != nil {
		return SymptomAnalysis{}, err
	}
	raw, ok := s.complete(ctx, "symptoms", symptomPrompt(in))
	a := parseSymptomAnalysis(raw)
	a.Degraded = !ok
	return a, nil
}

// CheckResult is a stored symptom check plus the full analysis.
type CheckResult struct {
	Check    model.SymptomCheck `json:"check"`
	Analysis SymptomAnalysis    `json:"analysis"`
}

// CheckSymptoms analyzes and records the result for userID.
func (s *Service) CheckSymptoms(ctx context.Context, userID uint64, in SymptomInput) (CheckResult, error) {
	a, err := s.AnalyzeSymptoms(ctx, in)
	if err != nil {
		return CheckResult{}, err
	}
	diagnosis := make([]string, 0, len(a.PossibleConditions))
	for _, c := range a.PossibleConditions {
		diagnosis = append(diagnosis, fmt.Sprintf("%s (%s probability)", c.Condition, c.Probability))
	}
	check, err := s.store.SaveSymptomCheck(ctx, model.SymptomCheck{
		UserID:          userID,
		Symptoms:        nonEmpty(in.Symptoms),
		Diagnosis:       strings.Join(diagnosis, "; "),
		RiskLevel:       a.UrgencyLevel,
		Recommendations: strings.Join(a.Recommendations, "; "),
		Severity:        a.UrgencyLevel,
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		return CheckResult{}, fmt.Errorf("persist symptom check: %w", err)
	}
	return CheckResult{Check: check, Analysis: a}, nil
}

func (s *Service) FirstAidGuidance(ctx context.Context, situation string) (FirstAid, error) {
	situation = strings.TrimSpace(situation)
	if situation == "" {
		return FirstAid{}, apperr.Validation("situation", "situation is required")
	}
	raw, ok := s.complete(ctx, "first_aid", firstAidPrompt(situation))
	f := parseFirstAid(raw, situation)
	f.Degraded = !ok
	return f, nil
}

// ChatTurn is the stored user message and the assistant's reply. Source is
// "assistant" when the model answered and "fallback" otherwise.
type ChatTurn struct {
	UserMessage model.ChatMessage `json:"user_message"`
	BotResponse model.ChatMessage `json:"bot_response"`
	Source      string            `json:"source"`
}

// Chat stores the message and answers it. Model failures fall back to the
// static first-aid table; only storage failures are returned.
func (s *Service) Chat(ctx context.Context, userID uint64, message string) (ChatTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatTurn{}, apperr.Validation("message", "message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return ChatTurn{}, apperr.Validation("message", fmt.Sprintf("message must be at most %d characters", maxMessageLen))
	}

	userMsg, err := s.store.SaveMessage(ctx, model.ChatMessage{
		UserID: userID, Message: message, IsUserMessage: true, CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return ChatTurn{}, fmt.Errorf("persist chat message: %w", err)
	}

	source, reply := "fallback", ""
	if raw, ok := s.complete(ctx, "chat", firstAidPrompt(message)); ok {
		if g := parseFirstAid(raw, message); len(g.Steps) > 0 {
			source, reply = "assistant", g.render()
		}
	}
	if reply == "" {
		reply = fallbackReply(message, s.number)
	}

	bot, err := s.store.SaveMessage(ctx, model.ChatMessage{
		UserID: userID, Message: reply, IsUserMessage: false, CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return ChatTurn{}, fmt.Errorf("persist chat reply: %w", err)
	}
	return ChatTurn{UserMessage: userMsg, BotResponse: bot, Source: source}, nil
}

func (s *Service) History(ctx context.Context, userID uint64) ([]model.ChatMessage, error) {
	msgs, err := s.store.RecentMessages(ctx, userID, historyLimit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

func (s *Service) SymptomChecks(ctx context.Context, userID uint64) ([]model.SymptomCheck, error) {
	checks, err := s.store.ListSymptomChecks(ctx, userID, checkListLimit)
	if err != nil {
		return nil, err
	}
	if checks == nil {
		checks = []model.SymptomCheck{}
	}
	return checks, nil
}

// SymptomCheck returns one of userID's checks. Other users' checks are
// reported as not found.
func (s *Service) SymptomCheck(ctx context.Context, userID, id uint64) (model.SymptomCheck, error) {
	c, err := s.store.GetSymptomCheck(ctx, id)
	if err != nil {
		return model.SymptomCheck{}, err
	}
	if c.UserID != userID {
		return model.SymptomCheck{}, apperr.ErrNotFound
	}
	return c, nil
}
