package mockapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
)

const defaultSecret = "aihub-mock-secret"

type Options struct {
	// Secret signs the issued tokens.
	Secret string
	// Latency delays every response, the way the hosted backend feels.
	Latency time.Duration
	// LogRequests writes one line per request to stdout.
	LogRequests bool
	Now         func() time.Time
}

type Server struct {
	backend *backend
	secret  []byte
	latency time.Duration
	now     func() time.Time
	router  chi.Router
	log     *debuglog.FieldLogger

	mu       sync.Mutex
	failures []int
}

func New(opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	secret := opts.Secret
	if secret == "" {
		secret = defaultSecret
	}
	s := &Server{
		backend: newBackend(now),
		secret:  []byte(secret),
		latency: opts.Latency,
		now:     now,
		log:     debuglog.WithFields(map[string]any{"component": "mockapi"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.LogRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(s.delay)
	r.Use(s.injectFailures)

	r.Post("/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.identify)

		for _, kind := range content.Kinds() {
			r.Route("/"+kind.Collection(), func(r chi.Router) {
				r.Get("/", s.listKind(kind))
				r.Get("/tag/{tag}", s.listKind(kind))
				if kind == content.KindDocument {
					r.Get("/tags/all", s.tagsOf(kind))
				}
				r.Get("/{id}", s.getItem(kind))
				r.With(requireUser).Post("/{id}/like", s.likeItem(kind))
				if kind == content.KindTool {
					r.Get("/{id}/comments", s.listComments)
					r.With(requireUser).Post("/{id}/comments", s.postComment)
				}
			})
		}
		r.Get("/tags", s.tagsOf(content.KindTool))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/likes", s.listLiked)
			r.Get("/likes/", s.listLiked)
			r.Post("/likes/toggle", s.toggleAny)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondDetail(w, http.StatusNotFound, "Not Found")
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next len(statuses) requests, other than logins,
// answer with the given statuses in order.
func (s *Server) FailNext(statuses ...int) {
	s.mu.Lock()
	s.failures = append(s.failures, statuses...)
	s.mu.Unlock()
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			s.mu.Lock()
			var status int
			if len(s.failures) > 0 {
				status, s.failures = s.failures[0], s.failures[1:]
			}
			s.mu.Unlock()
			if status != 0 {
				respondDetail(w, status, http.StatusText(status))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			t := time.NewTimer(s.latency)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        content.User `json:"user"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "email and password are required"}},
		})
		return
	}
	u, ok := s.backend.authenticate(req.Email, req.Password)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		s.log.Errorf("signing token: %v", err)
		respondDetail(w, http.StatusInternalServerError, "token error")
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer", User: u})
}

func (s *Server) listKind(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := param(r, "tag")
		respondJSON(w, http.StatusOK, s.backend.list(kind, tag, currentUserID(r)))
	}
}

func (s *Server) getItem(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := content.Key{Kind: kind, ID: param(r, "id")}
		item, ok := s.backend.get(key, currentUserID(r))
		if !ok {
			respondDetail(w, http.StatusNotFound, kind.Label()+" item not found")
			return
		}
		respondJSON(w, http.StatusOK, item)
	}
}

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount *int `json:"likeCount,omitempty"`
}

func likeBody(state content.LikeState) likeResponse {
	out := likeResponse{Liked: state.IsLiked()}
	if state.Counted {
		n := state.Count
		out.LikeCount = &n
	}
	return out
}

func (s *Server) likeItem(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := content.Key{Kind: kind, ID: param(r, "id")}
		state, ok := s.backend.toggle(key, currentUserID(r))
		if !ok {
			respondDetail(w, http.StatusNotFound, kind.Label()+" item not found")
			return
		}
		respondJSON(w, http.StatusOK, likeBody(state))
	}
}

type toggleRequest struct {
	ContentID   string `json:"contentId"`
	ContentType string `json:"contentType"`
}

func (s *Server) toggleAny(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	kind, err := content.ParseKind(req.ContentType)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	state, ok := s.backend.toggle(content.Key{Kind: kind, ID: req.ContentID}, currentUserID(r))
	if !ok {
		respondDetail(w, http.StatusNotFound, kind.Label()+" item not found")
		return
	}
	respondJSON(w, http.StatusOK, likeBody(state))
}

func (s *Server) listLiked(w http.ResponseWriter, r *http.Request) {
	items := s.backend.liked(currentUserID(r))
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := content.MarshalTagged(it)
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, b)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) tagsOf(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, s.backend.tags(kind))
	}
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.backend.commentsOf(param(r, "id"))
	if !ok {
		respondDetail(w, http.StatusNotFound, "Tool not found")
		return
	}
	respondJSON(w, http.StatusOK, cs)
}

type commentRequest struct {
	Text string `json:"text"`
}

func (s *Server) postComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "Comment text must not be empty")
		return
	}
	u, _ := currentUser(r)
	c, err := s.backend.addComment(param(r, "id"), u, text)
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Tool not found")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// param returns a decoded path parameter. chi matches on the raw path when
// the request carries escaped slashes, so those parameters arrive escaped.
func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondDetail(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
