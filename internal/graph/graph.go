// Package graph adapts the Google Workspace APIs to the flow's
// collaborator contracts: directory lookups for attendee resolution,
// free/busy queries for candidate slots, and event creation for the
// invite. Every call authenticates with the bearer token the flow
// acquired for the current phase.
package graph

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Client struct {
	log *logrus.Entry
}

func New(log *logrus.Logger) *Client {
	return &Client{
		log: log.WithField("component", "graph"),
	}
}

func tokenOption(token string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

func (c *Client) calendarService(ctx context.Context, token string) (*calendar.Service, error) {
	return calendar.NewService(ctx, tokenOption(token))
}

func (c *Client) directoryService(ctx context.Context, token string) (*admin.Service, error) {
	return admin.NewService(ctx, tokenOption(token))
}
