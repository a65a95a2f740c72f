package http

import (
	"context"
	"net/http"

	"flashmind-student/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "flashmind_session"
	sidKey     = "sid"
)

// NewCookieStore signs the browser session cookie. It carries only the
// session ID; credentials stay in the server-side CredentialStore.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// A cookie signed with an old secret yields an error and a fresh session.
	sess, _ := s.cookies.Get(r, cookieName)
	return sess
}

// sid returns the session ID of the request, or "" when there is none.
func (s *Server) sid(r *http.Request) string {
	id, _ := s.session(r).Values[sidKey].(string)
	return id
}

// ensureSID returns the session ID, minting and saving one when missing.
func (s *Server) ensureSID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := s.session(r)
	if id, ok := sess.Values[sidKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[sidKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// dropSession expires the cookie.
func (s *Server) dropSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess := s.session(r)
	sess.AddFlash(msg)
	_ = sess.Save(r, w)
}

func (s *Server) flashes(w http.ResponseWriter, r *http.Request) []string {
	sess := s.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

type userKey struct{}

func withUser(ctx context.Context, user domain.Profile) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func userFrom(ctx context.Context) (domain.Profile, bool) {
	user, ok := ctx.Value(userKey{}).(domain.Profile)
	return user, ok
}
