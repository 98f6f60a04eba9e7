package graph

import (
	"context"
	"fmt"
	"strings"
)

const maxDirectoryMatches = 10

// Resolve looks the query up in the Workspace directory and returns the
// primary email of every matching user. The caller decides what zero,
// one or many matches mean; this adapter only reports them.
func (c *Client) Resolve(ctx context.Context, token, query string) ([]string, error) {
	srv, err := c.directoryService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("err building directory client: %w", err)
	}
	q := "name:" + query
	if strings.Contains(query, "@") {
		q = "email:" + query
	}
	users, err := srv.Users.List().
		Customer("my_customer").
		Query(q).
		MaxResults(maxDirectoryMatches).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("err querying directory for %q: %w", query, err)
	}
	identities := make([]string, 0, len(users.Users))
	for _, u := range users.Users {
		if u.PrimaryEmail != "" {
			identities = append(identities, u.PrimaryEmail)
		}
	}
	c.log.Debugf("directory query %q matched %d users", query, len(identities))
	return identities, nil
}
