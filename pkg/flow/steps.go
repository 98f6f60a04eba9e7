package flow

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

const (
	promptAttendees   = "With whom would you like to set up a meeting?"
	promptDuration    = "What will be the duration of the meeting? (in hours)"
	promptTitle       = "Please enter the title of the meeting"
	promptDescription = "Please enter the description of the meeting"
	promptSlots       = "These are the time suggestions. Reply with the number of the slot you want."

	retryDuration = "Invalid value, please enter a proper value"
	retryChoice   = "Sorry, please pick one of the listed slots"
	retryToken    = "Please use the sign-in link to continue."

	msgSomethingWrong = "Something went wrong. Please type /start to begin again."
	msgSignInTimeout  = "Sign-in timed out. Please type /start to begin again."
	msgNoSlots        = "No appropriate meeting slot found. Please type /start to try again."
	msgScheduled      = "Meeting has been scheduled. Thank you!"
)

// SignInPrompt prefixes the suspension message that carries a sign-in
// link, so transports can render the link as an affordance.
const SignInPrompt = "Please sign in to continue: "

const slotTimeLayout = "Mon, 02 Jan 2006 15:04"

type outcome int

const (
	outcomeAdvance outcome = iota
	outcomeSuspend
	outcomeAbort
	outcomeDone
)

type stepResult struct {
	outcome  outcome
	expect   InputKind
	reason   string
	err      error
	messages []string
}

func advance() stepResult {
	return stepResult{outcome: outcomeAdvance}
}

func suspend(kind InputKind, msgs ...string) stepResult {
	return stepResult{outcome: outcomeSuspend, expect: kind, messages: msgs}
}

func abort(reason string, err error, msgs ...string) stepResult {
	return stepResult{outcome: outcomeAbort, reason: reason, err: err, messages: msgs}
}

func finish(msgs ...string) stepResult {
	return stepResult{outcome: outcomeDone, messages: msgs}
}

// steps is the pipeline in canonical order. Token acquisition re-enters
// between phases because each external call needs a fresh bearer token.
// Exactly one row is waiting per running instance at any time.
var steps = []stepDef{
	{name: "acquire-token", retry: retryToken, enter: enterAcquireToken, resume: resumeAcquireToken},
	{name: "collect-attendees", enter: enterCollectAttendees, resume: resumeCollectAttendees},
	{name: "resolve-attendees", enter: enterResolveAttendees},
	{name: "acquire-token", retry: retryToken, enter: enterAcquireToken, resume: resumeAcquireToken},
	{name: "collect-duration", retry: retryDuration, enter: enterCollectDuration, resume: resumeCollectDuration},
	{name: "acquire-token", retry: retryToken, enter: enterAcquireToken, resume: resumeAcquireToken},
	{name: "find-candidate-slots", retry: retryChoice, enter: enterFindSlots, resume: resumeFindSlots},
	{name: "collect-title", enter: enterCollectTitle, resume: resumeCollectTitle},
	{name: "collect-description", enter: enterCollectDescription, resume: resumeCollectDescription},
	{name: "acquire-token", retry: retryToken, enter: enterAcquireToken, resume: resumeAcquireToken},
	{name: "dispatch-invite", enter: enterDispatchInvite},
}

type stepDef struct {
	name   string
	retry  string
	enter  func(e *Engine, ctx context.Context, s *instance) stepResult
	resume func(e *Engine, ctx context.Context, s *instance, in TurnInput) stepResult
}

func enterAcquireToken(e *Engine, ctx context.Context, s *instance) stepResult {
	token, err := e.broker.CachedToken(ctx, s.ownerKey)
	if err != nil {
		return abort("token_unavailable", err, msgSomethingWrong)
	}
	if token != "" {
		s.token = token
		return advance()
	}
	s.deadline = e.now().Add(e.tokenWait)
	link := e.broker.SignInLink(s.ownerKey, s.sessionKey)
	return suspend(KindToken, SignInPrompt+link)
}

func resumeAcquireToken(e *Engine, _ context.Context, s *instance, in TurnInput) stepResult {
	if e.now().After(s.deadline) {
		return abort("token_timeout", nil, msgSignInTimeout)
	}
	if in.Token == "" {
		return abort("token_unavailable", nil, msgSomethingWrong)
	}
	s.token = in.Token
	return advance()
}

func enterCollectAttendees(e *Engine, ctx context.Context, s *instance) stepResult {
	// First write of the record: keys only, the rest merges in later.
	rec := &models.MeetingRequest{OwnerKey: s.ownerKey, SessionKey: s.sessionKey}
	if _, err := e.store.UpsertMerge(ctx, rec); err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	return suspend(KindText, promptAttendees)
}

func resumeCollectAttendees(_ *Engine, _ context.Context, s *instance, in TurnInput) stepResult {
	s.scratch = in
	return advance()
}

func enterResolveAttendees(e *Engine, ctx context.Context, s *instance) stepResult {
	names := splitNames(s.scratch.Text)
	if len(names) == 0 {
		return abort("attendee_not_found", nil,
			fmt.Sprintf("Attendee %q not found. Please type /start to begin again.", s.scratch.Text))
	}
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		identities, err := e.resolver.Resolve(ctx, s.token, name)
		if err != nil {
			return abort("resolver", err, msgSomethingWrong)
		}
		switch {
		case len(identities) == 0:
			return abort("attendee_not_found", nil,
				fmt.Sprintf("Attendee %q not found. Please type /start to begin again.", name))
		case len(identities) > 1:
			return abort("attendee_ambiguous", nil,
				fmt.Sprintf("There are %d people whose name starts with %q. Please type /start and use a full email address to avoid ambiguity.", len(identities), name))
		}
		resolved = append(resolved, identities[0])
	}
	joined := strings.Join(resolved, ",")
	rec := &models.MeetingRequest{OwnerKey: s.ownerKey, SessionKey: s.sessionKey, Attendees: &joined}
	if _, err := e.store.UpsertMerge(ctx, rec); err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	return advance()
}

func enterCollectDuration(_ *Engine, _ context.Context, _ *instance) stepResult {
	return suspend(KindNumber, promptDuration)
}

func resumeCollectDuration(e *Engine, ctx context.Context, s *instance, in TurnInput) stepResult {
	v := in.Number
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v >= 8 {
		return suspend(KindNumber, retryDuration)
	}
	rec := &models.MeetingRequest{OwnerKey: s.ownerKey, SessionKey: s.sessionKey, DurationHours: &v}
	if _, err := e.store.UpsertMerge(ctx, rec); err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	return advance()
}

func enterFindSlots(e *Engine, ctx context.Context, s *instance) stepResult {
	rec, err := e.store.Get(ctx, s.ownerKey, s.sessionKey)
	if err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	if rec.DurationHours == nil {
		return abort("storage", nil, msgSomethingWrong)
	}
	slots, err := e.finder.FindSlots(ctx, s.token, rec.AttendeeList(), *rec.DurationHours)
	if err != nil {
		return abort("finder", err, msgSomethingWrong)
	}
	if len(slots) == 0 {
		return abort("no_slots", nil, msgNoSlots)
	}
	s.slots = slots
	return suspend(KindChoice, promptSlots, renderSlots(slots))
}

func resumeFindSlots(_ *Engine, _ context.Context, s *instance, in TurnInput) stepResult {
	if in.Choice < 0 || in.Choice >= len(s.slots) {
		return suspend(KindChoice, retryChoice)
	}
	s.scratch = in
	return advance()
}

func enterCollectTitle(e *Engine, ctx context.Context, s *instance) stepResult {
	idx := s.scratch.Choice
	rec := &models.MeetingRequest{OwnerKey: s.ownerKey, SessionKey: s.sessionKey, SelectedSlot: &idx}
	if _, err := e.store.UpsertMerge(ctx, rec); err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	return suspend(KindText, promptTitle)
}

func resumeCollectTitle(e *Engine, ctx context.Context, s *instance, in TurnInput) stepResult {
	rec := &models.MeetingRequest{OwnerKey: s.ownerKey, SessionKey: s.sessionKey, Title: &in.Text}
	if _, err := e.store.UpsertMerge(ctx, rec); err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	return advance()
}

func enterCollectDescription(_ *Engine, _ context.Context, _ *instance) stepResult {
	return suspend(KindText, promptDescription)
}

func resumeCollectDescription(e *Engine, ctx context.Context, s *instance, in TurnInput) stepResult {
	rec := &models.MeetingRequest{OwnerKey: s.ownerKey, SessionKey: s.sessionKey, Description: &in.Text}
	if _, err := e.store.UpsertMerge(ctx, rec); err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	return advance()
}

func enterDispatchInvite(e *Engine, ctx context.Context, s *instance) stepResult {
	if s.token == "" {
		return abort("token_unavailable", nil, msgSomethingWrong)
	}
	rec, err := e.store.Get(ctx, s.ownerKey, s.sessionKey)
	if err != nil {
		return abort("storage", err, msgSomethingWrong)
	}
	if rec.SelectedSlot == nil || *rec.SelectedSlot < 0 || *rec.SelectedSlot >= len(s.slots) {
		return abort("dispatch", fmt.Errorf("selected slot out of range"), msgSomethingWrong)
	}
	slot := s.slots[*rec.SelectedSlot]
	var title, description string
	if rec.Title != nil {
		title = *rec.Title
	}
	if rec.Description != nil {
		description = *rec.Description
	}
	if err := e.dispatcher.CreateEvent(ctx, s.token, slot, rec.AttendeeList(), title, description); err != nil {
		return abort("dispatch", err, msgSomethingWrong)
	}
	return finish(msgScheduled)
}

// splitNames strips all whitespace and splits on commas, dropping empty
// entries.
func splitNames(s string) []string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	parts := strings.Split(compact, ",")
	names := parts[:0]
	for _, p := range parts {
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// renderSlots formats the candidate list as user-facing 1-based options.
func renderSlots(slots []models.TimeSlot) string {
	var sb strings.Builder
	for i, slot := range slots {
		fmt.Fprintf(&sb, "%d. %s – %s\n", i+1, slot.Start.Format(slotTimeLayout), slot.End.Format(slotTimeLayout))
	}
	return strings.TrimRight(sb.String(), "\n")
}
