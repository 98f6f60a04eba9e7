package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/meetbot-dev/meetbot/internal/auth"
	"github.com/meetbot-dev/meetbot/pkg/models"
)

type ctxClaimsType string

const ctxClaimsStr ctxClaimsType = "claims"

var (
	ErrUnauthorised = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

func (s *Server) jwtAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeResponse(w, http.StatusUnauthorized, ErrUnauthorised)
			return
		}
		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 {
			s.writeResponse(w, http.StatusUnauthorized, ErrUnauthorised)
			return
		}
		if headerParts[0] != "Bearer" {
			s.writeResponse(w, http.StatusUnauthorized, ErrUnauthorised)
			return
		}
		claims, err := auth.ParseClaims(headerParts[1], s.secret)
		if err != nil {
			s.writeResponse(w, http.StatusUnauthorized, ErrUnauthorised)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxClaimsStr, claims))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getClaims(ctx context.Context) *models.Claims {
	claims, ok := ctx.Value(ctxClaimsStr).(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}
