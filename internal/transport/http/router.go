package http

import (
	"net/http"
	"time"

	"flashmind-student/internal/app"
	"flashmind-student/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators of the web interface.
type Deps struct {
	Auth        *app.AuthService
	Quizzes     *app.QuizService
	Cookies     sessions.Store
	CORSOrigins []string
}

// Server renders the student pages and hosts the live quiz socket.
type Server struct {
	auth    *app.AuthService
	quizzes *app.QuizService
	cookies sessions.Store
	views   *views
	ws      *WSHandler
}

func NewServer(deps Deps) (*Server, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	s := &Server{
		auth:    deps.Auth,
		quizzes: deps.Quizzes,
		cookies: deps.Cookies,
		views:   v,
	}
	s.ws = NewWSHandler(s)
	return s, nil
}

// Router wires every route. Protected routes go through RequireCapability.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(s.loadUser)

		pr.Get("/", s.home)
		pr.Get("/home", s.home)
		pr.Get("/login", s.loginPage)
		pr.Post("/login", s.login)
		pr.Get("/signup", s.signupPage)
		pr.Post("/signup", s.signup)
		pr.Post("/logout", s.logout)

		pr.Route("/student", func(sr chi.Router) {
			sr.Group(func(pages chi.Router) {
				pages.Use(middleware.Timeout(30 * time.Second))
				pages.With(s.RequireCapability(domain.CapStudentDashboard)).Get("/dashboard", s.dashboard)
				pages.With(s.RequireCapability(domain.CapStudentDashboard)).Get("/history", s.history)
				pages.With(s.RequireCapability(domain.CapStudentDashboard)).Get("/participation/{id}", s.participation)
				pages.With(s.RequireCapability(domain.CapTakeQuiz)).Post("/join", s.join)
				pages.With(s.RequireCapability(domain.CapTakeQuiz)).Get("/quiz/{id}", s.quizPage)
			})
			// The socket lives as long as the attempt, so it skips the page timeout.
			sr.With(s.RequireCapability(domain.CapTakeQuiz)).Get("/quiz/{id}/ws", s.ws.ServeWS)
		})
		pr.With(s.RequireCapability(domain.CapProfessorDashboard)).Get("/professor/dashboard", s.placeholder("Espace professeur"))
		pr.With(s.RequireCapability(domain.CapAdminDashboard)).Get("/admin/dashboard", s.placeholder("Administration"))
		pr.NotFound(s.notFound)
	})
	return r
}

// loadUser attaches the stored profile, if any, to the request context.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := s.sid(r)
		if sid != "" {
			user, ok, err := s.auth.CurrentUser(r.Context(), sid)
			if err != nil {
				http.Error(w, "session storage unavailable", http.StatusServiceUnavailable)
				return
			}
			if ok {
				r = r.WithContext(withUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCapability is the role gate: anonymous visitors go to /login and a
// role without the capability goes to its own dashboard. Protected content
// is never rendered for them.
func (s *Server) RequireCapability(c domain.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFrom(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			if !user.Role.Can(c) {
				http.Redirect(w, r, user.Role.DashboardPath(), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
