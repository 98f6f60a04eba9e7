package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func TestUpsertMergeNilRecord(t *testing.T) {
	s := New()
	_, err := s.UpsertMerge(context.Background(), nil)
	require.ErrorIs(t, err, models.ErrNullRecord)
}

func TestGetNotFound(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "owner", "session")
	require.ErrorIs(t, err, models.ErrRequestNotFound)
}

func TestMergePreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:      "owner",
		SessionKey:    "session",
		Attendees:     strPtr("a@x.com"),
		DurationHours: f64Ptr(1.0),
	})
	require.NoError(t, err)

	merged, err := s.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:      "owner",
		SessionKey:    "session",
		DurationHours: f64Ptr(2.0),
	})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", *merged.Attendees)
	require.Equal(t, 2.0, *merged.DurationHours)

	stored, err := s.Get(ctx, "owner", "session")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", *stored.Attendees)
	require.Equal(t, 2.0, *stored.DurationHours)
}

func TestKeysImmutableAcrossMerges(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertMerge(ctx, &models.MeetingRequest{OwnerKey: "owner", SessionKey: "session"})
	require.NoError(t, err)
	merged, err := s.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:   "owner",
		SessionKey: "session",
		Title:      strPtr("Sync"),
	})
	require.NoError(t, err)
	require.Equal(t, "owner", merged.OwnerKey)
	require.Equal(t, "session", merged.SessionKey)
}

func TestReturnedRecordIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:   "owner",
		SessionKey: "session",
		Title:      strPtr("Sync"),
	})
	require.NoError(t, err)

	first, err := s.Get(ctx, "owner", "session")
	require.NoError(t, err)
	*first.Title = "mutated"

	second, err := s.Get(ctx, "owner", "session")
	require.NoError(t, err)
	require.Equal(t, "Sync", *second.Title)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:   "owner",
		SessionKey: "a",
		Title:      strPtr("A"),
	})
	require.NoError(t, err)
	_, err = s.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:   "owner",
		SessionKey: "b",
		Title:      strPtr("B"),
	})
	require.NoError(t, err)

	recA, err := s.Get(ctx, "owner", "a")
	require.NoError(t, err)
	recB, err := s.Get(ctx, "owner", "b")
	require.NoError(t, err)
	require.Equal(t, "A", *recA.Title)
	require.Equal(t, "B", *recB.Title)
}
