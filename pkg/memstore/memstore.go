// Package memstore is an in-memory implementation of the flow store
// contract, used by unit tests and as a database-free dev backend.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]*models.MeetingRequest
	now     func() time.Time
}

func New() *Store {
	return &Store{
		records: make(map[string]*models.MeetingRequest),
		now:     time.Now,
	}
}

func key(ownerKey, sessionKey string) string {
	return ownerKey + "/" + sessionKey
}

// UpsertMerge creates or updates the record keyed by (ownerKey,
// sessionKey), overwriting only the fields present in rec. Keys are
// fixed by the first write and never change. Returns a copy of the
// merged entity.
func (s *Store) UpsertMerge(_ context.Context, rec *models.MeetingRequest) (models.MeetingRequest, error) {
	if rec == nil {
		return models.MeetingRequest{}, models.ErrNullRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[key(rec.OwnerKey, rec.SessionKey)]
	if !ok {
		cur = &models.MeetingRequest{
			OwnerKey:   rec.OwnerKey,
			SessionKey: rec.SessionKey,
			CreatedAt:  s.now(),
		}
		s.records[key(rec.OwnerKey, rec.SessionKey)] = cur
	}
	merge(cur, rec)
	cur.UpdatedAt = s.now()
	return clone(cur), nil
}

// Get returns a copy of the stored record or ErrRequestNotFound.
func (s *Store) Get(_ context.Context, ownerKey, sessionKey string) (models.MeetingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.records[key(ownerKey, sessionKey)]
	if !ok {
		return models.MeetingRequest{}, models.ErrRequestNotFound
	}
	return clone(cur), nil
}

func merge(dst, src *models.MeetingRequest) {
	if src.Attendees != nil {
		v := *src.Attendees
		dst.Attendees = &v
	}
	if src.DurationHours != nil {
		v := *src.DurationHours
		dst.DurationHours = &v
	}
	if src.SelectedSlot != nil {
		v := *src.SelectedSlot
		dst.SelectedSlot = &v
	}
	if src.Title != nil {
		v := *src.Title
		dst.Title = &v
	}
	if src.Description != nil {
		v := *src.Description
		dst.Description = &v
	}
}

func clone(rec *models.MeetingRequest) models.MeetingRequest {
	out := *rec
	if rec.Attendees != nil {
		v := *rec.Attendees
		out.Attendees = &v
	}
	if rec.DurationHours != nil {
		v := *rec.DurationHours
		out.DurationHours = &v
	}
	if rec.SelectedSlot != nil {
		v := *rec.SelectedSlot
		out.SelectedSlot = &v
	}
	if rec.Title != nil {
		v := *rec.Title
		out.Title = &v
	}
	if rec.Description != nil {
		v := *rec.Description
		out.Description = &v
	}
	return out
}
