package mockapi

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pders01/aihub/internal/content"
)

const tokenTTL = 24 * time.Hour

type contextKey string

const userContextKey contextKey = "user"

func hashPassword(password string) string {
	h := sha512.New()
	_, _ = h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

func checkPasswordHash(password, hash string) bool {
	return hashPassword(password) == hash
}

func (s *Server) issueToken(u content.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"exp":   s.now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

// userFromToken verifies a bearer token and returns its subject.
func (s *Server) userFromToken(raw string) (content.User, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return content.User{}, errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return content.User{}, err
	}
	u, ok := s.backend.user(sub)
	if !ok {
		return content.User{}, errors.New("unknown user")
	}
	return u, nil
}

func bearer(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// identify attaches the caller to the request context when a valid token
// is present. Requests without one pass through anonymously; a bad token
// is rejected.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearer(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := s.userFromToken(raw)
		if err != nil {
			respondDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects anonymous requests.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r); !ok {
			respondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) (content.User, bool) {
	u, ok := r.Context().Value(userContextKey).(content.User)
	return u, ok
}

func currentUserID(r *http.Request) string {
	u, _ := currentUser(r)
	return u.ID
}
