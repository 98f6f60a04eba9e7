package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

// App is the slice of the scheduler the admin API and the OAuth
// callback need.
type App interface {
	GetMeetingRequest(ctx context.Context, ownerKey, sessionKey string) (models.MeetingRequest, error)
	CompleteSignIn(ctx context.Context, state, code string) error
}

type Server struct {
	log     *logrus.Entry
	app     App
	address string
	version string
	secret  []byte
	server  *http.Server
}

func New(log *logrus.Logger, app App, address, version string, secret []byte) *Server {
	return &Server{
		log:     log.WithField("component", "rest"),
		app:     app,
		address: address,
		version: version,
		secret:  secret,
	}
}

func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{Addr: s.address, Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("err during shutdown: %v", err)
		}
	}()
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/version", s.versionHandler)
	r.Get("/auth/callback", s.authCallbackHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.With(s.jwtAuth).Get("/requests/{ownerKey}/{sessionKey}", s.getRequestHandler)
		})
	})
	return r
}
