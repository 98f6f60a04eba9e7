// Package flow implements the conversational state machine that drives
// the meeting-scheduling pipeline: a fixed, ordered table of steps that
// suspend for typed user input, persist partial progress between turns
// and call the directory, availability and calendar collaborators.
package flow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meetbot-dev/meetbot/pkg/metrics"
	"github.com/meetbot-dev/meetbot/pkg/models"
)

// DefaultTokenWait is how long a flow waits for the user to finish
// signing in before the instance is aborted.
const DefaultTokenWait = 5 * time.Minute

// Store persists MeetingRequest records between turns.
type Store interface {
	UpsertMerge(ctx context.Context, rec *models.MeetingRequest) (models.MeetingRequest, error)
	Get(ctx context.Context, ownerKey, sessionKey string) (models.MeetingRequest, error)
}

// TokenBroker supplies cached bearer tokens and sign-in links. An empty
// token from CachedToken means the user has to sign in first.
type TokenBroker interface {
	CachedToken(ctx context.Context, ownerKey string) (string, error)
	SignInLink(ownerKey, sessionKey string) string
}

// Resolver maps a name or email query to directory identities.
type Resolver interface {
	Resolve(ctx context.Context, token, query string) ([]string, error)
}

// Finder computes ranked candidate meeting slots.
type Finder interface {
	FindSlots(ctx context.Context, token string, attendees []string, durationHours float64) ([]models.TimeSlot, error)
}

// Dispatcher creates the calendar event for the chosen slot.
type Dispatcher interface {
	CreateEvent(ctx context.Context, token string, slot models.TimeSlot, attendees []string, title, description string) error
}

// Engine runs one flow instance per (owner, session). Turns for one
// session can arrive from more than one transport at once (chat text
// and the sign-in callback), so each instance carries its own lock and
// holds it across the whole resume.
type Engine struct {
	log        *logrus.Entry
	store      Store
	broker     TokenBroker
	resolver   Resolver
	finder     Finder
	dispatcher Dispatcher
	tokenWait  time.Duration
	now        func() time.Time

	mu        sync.Mutex
	instances map[string]*instance
}

// instance is the in-memory state of one running flow: the step that is
// waiting, the kind of input it expects, the previous step's raw result
// (turn scratch) and the candidate slot list. None of this survives a
// restart; the durable record lives in the Store. mu serializes turns
// for the session and is held for the duration of a resume.
type instance struct {
	mu         sync.Mutex
	id         string
	ownerKey   string
	sessionKey string
	step       int
	waiting    bool
	expect     InputKind
	deadline   time.Time
	token      string
	scratch    TurnInput
	slots      []models.TimeSlot
}

func New(log *logrus.Logger, store Store, broker TokenBroker, resolver Resolver, finder Finder, dispatcher Dispatcher) *Engine {
	return &Engine{
		log:        log.WithField("component", "flow"),
		store:      store,
		broker:     broker,
		resolver:   resolver,
		finder:     finder,
		dispatcher: dispatcher,
		tokenWait:  DefaultTokenWait,
		now:        time.Now,
		instances:  make(map[string]*instance),
	}
}

func sessionID(ownerKey, sessionKey string) string {
	return ownerKey + "/" + sessionKey
}

// Start begins a fresh flow instance for the session, replacing any
// instance already running, and executes steps until the first
// suspension. Returns the outbound messages for this turn.
func (e *Engine) Start(ctx context.Context, ownerKey, sessionKey string) ([]string, error) {
	inst := &instance{
		id:         uuid.NewString(),
		ownerKey:   ownerKey,
		sessionKey: sessionKey,
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	e.mu.Lock()
	e.instances[sessionID(ownerKey, sessionKey)] = inst
	e.mu.Unlock()
	metrics.FlowStarted.Inc()
	e.log.WithFields(logrus.Fields{"flow": inst.id, "owner": ownerKey}).Info("flow started")
	return e.drive(ctx, inst, steps[0].enter(e, ctx, inst))
}

func (e *Engine) lookup(ownerKey, sessionKey string) (*instance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.instances[sessionID(ownerKey, sessionKey)]
	return inst, ok
}

// Expecting reports the input kind the session's suspended step is
// waiting for.
func (e *Engine) Expecting(ownerKey, sessionKey string) (InputKind, bool) {
	inst, ok := e.lookup(ownerKey, sessionKey)
	if !ok {
		return KindNone, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if !inst.waiting {
		return KindNone, false
	}
	return inst.expect, true
}

// Handle resumes the suspended step with a typed input. The input kind
// must match what the step suspended for; anything else is a defect in
// the transport wiring and surfaces as ErrInputKindMismatch.
func (e *Engine) Handle(ctx context.Context, ownerKey, sessionKey string, in TurnInput) ([]string, error) {
	inst, ok := e.lookup(ownerKey, sessionKey)
	if !ok {
		return nil, ErrNoFlow
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return e.resume(ctx, inst, in)
}

// HandleText recognizes raw user text against the expected input kind
// and resumes with it. Text that fails recognition (a non-numeric
// duration, a non-integer slot choice, anything at all during sign-in)
// re-prompts the same step without advancing.
func (e *Engine) HandleText(ctx context.Context, ownerKey, sessionKey, text string) ([]string, error) {
	inst, ok := e.lookup(ownerKey, sessionKey)
	if !ok {
		return nil, ErrNoFlow
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if !inst.waiting {
		return nil, ErrNoFlow
	}
	in, err := Recognize(inst.expect, text)
	switch err {
	case ErrInvalidNumber, ErrInvalidChoice, ErrInvalidToken:
		return []string{steps[inst.step].retry}, nil
	case nil:
	default:
		return nil, err
	}
	return e.resume(ctx, inst, in)
}

// resume runs the suspended step with an already typed input. The
// caller holds inst.mu.
func (e *Engine) resume(ctx context.Context, inst *instance, in TurnInput) ([]string, error) {
	if !inst.waiting {
		return nil, ErrNotWaiting
	}
	if in.Kind != inst.expect {
		return nil, ErrInputKindMismatch
	}
	inst.waiting = false
	return e.drive(ctx, inst, steps[inst.step].resume(e, ctx, inst, in))
}

// drive advances the pipeline until the next suspension point or flow
// termination, accumulating outbound messages along the way.
func (e *Engine) drive(ctx context.Context, inst *instance, res stepResult) ([]string, error) {
	out := res.messages
	for {
		switch res.outcome {
		case outcomeSuspend:
			inst.waiting = true
			inst.expect = res.expect
			return out, nil
		case outcomeAbort:
			if res.err != nil {
				e.log.WithFields(logrus.Fields{"flow": inst.id, "step": steps[inst.step].name}).
					Errorf("flow aborted: %v", res.err)
			}
			metrics.FlowAborted.WithLabelValues(res.reason).Inc()
			e.remove(inst)
			return out, nil
		case outcomeDone:
			metrics.FlowCompleted.Inc()
			e.remove(inst)
			return out, nil
		case outcomeAdvance:
			inst.step++
			started := e.now()
			res = steps[inst.step].enter(e, ctx, inst)
			metrics.StepDuration.WithLabelValues(steps[inst.step].name).Observe(e.now().Sub(started).Seconds())
			out = append(out, res.messages...)
		}
	}
}

func (e *Engine) remove(inst *instance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := sessionID(inst.ownerKey, inst.sessionKey)
	if cur, ok := e.instances[key]; ok && cur == inst {
		delete(e.instances, key)
	}
}
