package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meetbot-dev/meetbot/internal/auth"
	"github.com/meetbot-dev/meetbot/pkg/logger"
	"github.com/meetbot-dev/meetbot/pkg/models"
)

var testSecret = []byte("test-secret")

type stubApp struct {
	rec       models.MeetingRequest
	getErr    error
	signInErr error
	states    []string
	codes     []string
}

func (a *stubApp) GetMeetingRequest(_ context.Context, _, _ string) (models.MeetingRequest, error) {
	if a.getErr != nil {
		return models.MeetingRequest{}, a.getErr
	}
	return a.rec, nil
}

func (a *stubApp) CompleteSignIn(_ context.Context, state, code string) error {
	a.states = append(a.states, state)
	a.codes = append(a.codes, code)
	return a.signInErr
}

func newTestServer(t *testing.T, app *stubApp) *httptest.Server {
	t.Helper()
	s := New(logger.New("debug"), app, ":0", "test", testSecret)
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionHandler(t *testing.T) {
	srv := newTestServer(t, &stubApp{})

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "test\n", string(body))
}

func TestGetRequestRequiresAuth(t *testing.T) {
	srv := newTestServer(t, &stubApp{})

	resp, err := http.Get(srv.URL + "/api/v1/requests/42/1001")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetRequestRejectsBadToken(t *testing.T) {
	srv := newTestServer(t, &stubApp{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/requests/42/1001", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetRequest(t *testing.T) {
	attendees := "carol@x.com"
	app := &stubApp{rec: models.MeetingRequest{
		OwnerKey:   "42",
		SessionKey: "1001",
		Attendees:  &attendees,
	}}
	srv := newTestServer(t, app)

	token, err := auth.SignClaims("42", "1001", testSecret, time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/requests/42/1001", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec models.MeetingRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	require.Equal(t, "42", rec.OwnerKey)
	require.Equal(t, "1001", rec.SessionKey)
	require.Equal(t, "carol@x.com", *rec.Attendees)
}

func TestGetRequestForeignPairForbidden(t *testing.T) {
	srv := newTestServer(t, &stubApp{})

	token, err := auth.SignClaims("42", "1001", testSecret, time.Minute)
	require.NoError(t, err)
	for _, path := range []string{
		"/api/v1/requests/43/1001",
		"/api/v1/requests/42/2002",
	} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusForbidden, resp.StatusCode, "path %s", path)
		require.NoError(t, resp.Body.Close())
	}
}

func TestGetRequestNotFound(t *testing.T) {
	app := &stubApp{getErr: models.ErrRequestNotFound}
	srv := newTestServer(t, app)

	token, err := auth.SignClaims("42", "1001", testSecret, time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/requests/42/1001", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthCallbackMissingParams(t *testing.T) {
	srv := newTestServer(t, &stubApp{})

	resp, err := http.Get(srv.URL + "/auth/callback?state=only-state")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthCallback(t *testing.T) {
	app := &stubApp{}
	srv := newTestServer(t, app)

	resp, err := http.Get(srv.URL + "/auth/callback?state=some-state&code=some-code")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"some-state"}, app.states)
	require.Equal(t, []string{"some-code"}, app.codes)
}
