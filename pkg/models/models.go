package models

import (
	"strings"
	"time"
)

// MeetingRequest is the per-(owner, session) record of scheduling
// progress. Optional fields are pointers so that a partial update only
// carries the fields it means to overwrite; the store merges everything
// else from the previous version. OwnerKey and SessionKey form the
// storage key and never change after the first write.
type MeetingRequest struct {
	OwnerKey      string     `json:"ownerKey" db:"owner_key"`
	SessionKey    string     `json:"sessionKey" db:"session_key"`
	Attendees     *string    `json:"attendees,omitempty" db:"attendees"`
	DurationHours *float64   `json:"durationHours,omitempty" db:"duration_hours"`
	SelectedSlot  *int       `json:"selectedSlot,omitempty" db:"selected_slot"`
	Title         *string    `json:"title,omitempty" db:"title"`
	Description   *string    `json:"description,omitempty" db:"description"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// AttendeeList splits the comma-joined attendees column back into
// individual identities.
func (m MeetingRequest) AttendeeList() []string {
	if m.Attendees == nil || *m.Attendees == "" {
		return nil
	}
	return strings.Split(*m.Attendees, ",")
}

// TimeSlot is one candidate meeting window. Slots are never persisted;
// selection is by position in the list the finder returned for the
// current flow instance.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
