package pgstore

import (
	"context"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/suite"

	"github.com/meetbot-dev/meetbot/pkg/logger"
	"github.com/meetbot-dev/meetbot/pkg/models"
)

type StoreSuite struct {
	suite.Suite
	store *Store
}

func (s *StoreSuite) SetupSuite() {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		s.T().Skip("TEST_PG_DSN not set")
	}
	var err error
	s.store, err = New(context.Background(), logger.New("debug"), dsn)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Migrate(migrate.Up))
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.store.ResetTables(context.Background(), []string{"meeting_requests"}))
}

func (s *StoreSuite) TestUpsertMergeNilRecord() {
	_, err := s.store.UpsertMerge(context.Background(), nil)
	s.Require().ErrorIs(err, models.ErrNullRecord)
}

func (s *StoreSuite) TestGetNotFound() {
	_, err := s.store.Get(context.Background(), "owner", "session")
	s.Require().ErrorIs(err, models.ErrRequestNotFound)
}

func (s *StoreSuite) TestMergePreservesUntouchedFields() {
	ctx := context.Background()
	attendees := "a@x.com"
	duration := 1.0

	_, err := s.store.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:      "owner",
		SessionKey:    "session",
		Attendees:     &attendees,
		DurationHours: &duration,
	})
	s.Require().NoError(err)

	updated := 2.0
	merged, err := s.store.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:      "owner",
		SessionKey:    "session",
		DurationHours: &updated,
	})
	s.Require().NoError(err)
	s.Require().Equal("a@x.com", *merged.Attendees)
	s.Require().Equal(2.0, *merged.DurationHours)

	stored, err := s.store.Get(ctx, "owner", "session")
	s.Require().NoError(err)
	s.Require().Equal("a@x.com", *stored.Attendees)
	s.Require().Equal(2.0, *stored.DurationHours)
	s.Require().Equal("owner", stored.OwnerKey)
	s.Require().Equal("session", stored.SessionKey)
}

func (s *StoreSuite) TestIncrementalMerge() {
	ctx := context.Background()

	_, err := s.store.UpsertMerge(ctx, &models.MeetingRequest{OwnerKey: "owner", SessionKey: "session"})
	s.Require().NoError(err)

	attendees := "carol@x.com"
	_, err = s.store.UpsertMerge(ctx, &models.MeetingRequest{OwnerKey: "owner", SessionKey: "session", Attendees: &attendees})
	s.Require().NoError(err)

	duration := 1.5
	_, err = s.store.UpsertMerge(ctx, &models.MeetingRequest{OwnerKey: "owner", SessionKey: "session", DurationHours: &duration})
	s.Require().NoError(err)

	slot := 0
	title := "Sync"
	description := "Weekly sync"
	merged, err := s.store.UpsertMerge(ctx, &models.MeetingRequest{
		OwnerKey:     "owner",
		SessionKey:   "session",
		SelectedSlot: &slot,
		Title:        &title,
		Description:  &description,
	})
	s.Require().NoError(err)
	s.Require().Equal("carol@x.com", *merged.Attendees)
	s.Require().Equal(1.5, *merged.DurationHours)
	s.Require().Equal(0, *merged.SelectedSlot)
	s.Require().Equal("Sync", *merged.Title)
	s.Require().Equal("Weekly sync", *merged.Description)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}
