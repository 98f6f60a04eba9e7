package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/meetbot-dev/meetbot/pkg/flow"
	"github.com/meetbot-dev/meetbot/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, message string, chatID int64) error
}

type Broker interface {
	Exchange(ctx context.Context, state, code string) (ownerKey, sessionKey, accessToken string, err error)
}

// SchedulerService fronts the flow engine for both transports: the bot
// feeds turns in directly, the REST callback completes sign-ins and
// pushes the resulting messages back through the notifier.
type SchedulerService struct {
	log      *logrus.Entry
	engine   *flow.Engine
	store    flow.Store
	broker   Broker
	notifier Notifier
}

func New(log *logrus.Logger, engine *flow.Engine, store flow.Store, broker Broker, notifier Notifier) *SchedulerService {
	return &SchedulerService{
		log:      log.WithField("component", "service"),
		engine:   engine,
		store:    store,
		broker:   broker,
		notifier: notifier,
	}
}

// StartFlow begins a fresh flow instance, replacing any running one.
func (s *SchedulerService) StartFlow(ctx context.Context, ownerKey, sessionKey string) ([]string, error) {
	return s.engine.Start(ctx, ownerKey, sessionKey)
}

// HandleText feeds raw user text into the suspended step.
func (s *SchedulerService) HandleText(ctx context.Context, ownerKey, sessionKey, text string) ([]string, error) {
	return s.engine.HandleText(ctx, ownerKey, sessionKey, text)
}

// CompleteSignIn exchanges the OAuth callback for a token, resumes the
// flow that asked for it and delivers the resulting messages to the
// originating chat.
func (s *SchedulerService) CompleteSignIn(ctx context.Context, state, code string) error {
	ownerKey, sessionKey, token, err := s.broker.Exchange(ctx, state, code)
	if err != nil {
		return fmt.Errorf("err completing sign-in: %w", err)
	}
	msgs, err := s.engine.Handle(ctx, ownerKey, sessionKey, flow.TokenInput(token))
	if err == flow.ErrNoFlow {
		msgs = []string{"You are signed in, but there is no meeting being scheduled. Type /start to begin."}
	} else if err != nil {
		return fmt.Errorf("err resuming flow after sign-in: %w", err)
	}
	chatID, err := strconv.ParseInt(sessionKey, 10, 64)
	if err != nil {
		return fmt.Errorf("err parsing session key %q: %w", sessionKey, err)
	}
	for _, msg := range msgs {
		if err := s.notifier.Notify(ctx, msg, chatID); err != nil {
			s.log.Errorf("err notifying chat %d: %v", chatID, err)
		}
	}
	return nil
}

// GetMeetingRequest exposes the stored record for the admin API.
func (s *SchedulerService) GetMeetingRequest(ctx context.Context, ownerKey, sessionKey string) (models.MeetingRequest, error) {
	rec, err := s.store.Get(ctx, ownerKey, sessionKey)
	if err != nil {
		return models.MeetingRequest{}, fmt.Errorf("err getting meeting request from store: %w", err)
	}
	return rec, nil
}
