package http

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"flashmind-student/internal/api"
	"flashmind-student/internal/app"
	"flashmind-student/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (s *Server) pageFor(w http.ResponseWriter, r *http.Request, title string) page {
	p := page{Title: title, Flashes: s.flashes(w, r)}
	if user, ok := userFrom(r.Context()); ok {
		p.User = &user
	}
	return p
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "home", s.pageFor(w, r, "Accueil"))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusNotFound, "not_found", s.pageFor(w, r, "Page introuvable"))
}

func (s *Server) placeholder(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.views.render(w, http.StatusOK, "placeholder", s.pageFor(w, r, title))
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if user, ok := userFrom(r.Context()); ok {
		http.Redirect(w, r, user.Role.DashboardPath(), http.StatusFound)
		return
	}
	s.views.render(w, http.StatusOK, "login", s.pageFor(w, r, "Connexion"))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	form := app.LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	sid, err := s.ensureSID(w, r)
	if err != nil {
		log.Printf("login: save session: %v", err)
		http.Error(w, "could not start session", http.StatusInternalServerError)
		return
	}
	user, err := s.auth.Login(r.Context(), sid, form)
	if err != nil {
		p := s.pageFor(w, r, "Connexion")
		p.Error = api.UserMessage(err, "Erreur de connexion")
		p.Data = app.LoginForm{Email: form.Email}
		s.views.render(w, statusFor(err), "login", p)
		return
	}
	http.Redirect(w, r, user.Role.DashboardPath(), http.StatusFound)
}

func (s *Server) signupPage(w http.ResponseWriter, r *http.Request) {
	p := s.pageFor(w, r, "Inscription")
	p.Data = app.SignupForm{Role: "student"}
	s.views.render(w, http.StatusOK, "signup", p)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	form := app.SignupForm{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		FirstName:       r.PostFormValue("firstName"),
		LastName:        r.PostFormValue("lastName"),
		Role:            r.PostFormValue("role"),
	}
	if err := s.auth.Signup(r.Context(), form); err != nil {
		p := s.pageFor(w, r, "Inscription")
		p.Error = api.UserMessage(err, "Erreur lors de l'inscription")
		form.Password, form.ConfirmPassword = "", ""
		p.Data = form
		s.views.render(w, statusFor(err), "signup", p)
		return
	}
	s.addFlash(w, r, "Compte créé, vous pouvez vous connecter.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if sid := s.sid(r); sid != "" {
		if err := s.auth.Logout(r.Context(), sid); err != nil {
			log.Printf("logout: %v", err)
		}
	}
	s.dropSession(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// student resolves the backend client of the request; on failure the
// response has already been written.
func (s *Server) student(w http.ResponseWriter, r *http.Request) (app.StudentAPI, bool) {
	student, err := s.auth.Student(r.Context(), s.sid(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return nil, false
		}
		log.Printf("resolve student client: %v", err)
		http.Error(w, "session storage unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return student, true
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	student, ok := s.student(w, r)
	if !ok {
		return
	}
	p := s.pageFor(w, r, "Tableau de bord")
	dash, err := s.quizzes.Dashboard(r.Context(), student)
	if err != nil {
		log.Printf("dashboard: %v", err)
		p.Error = api.UserMessage(err, "Impossible de charger les quiz.")
		p.Data = app.Dashboard{}
		s.views.render(w, http.StatusBadGateway, "dashboard", p)
		return
	}
	p.Data = dash
	s.views.render(w, http.StatusOK, "dashboard", p)
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	student, ok := s.student(w, r)
	if !ok {
		return
	}
	quiz, err := s.quizzes.JoinByCode(r.Context(), student, r.PostFormValue("code"))
	if err != nil {
		msg := api.UserMessage(err, "Impossible de rejoindre ce quiz.")
		if errors.Is(err, domain.ErrQuizNotFound) {
			msg = "Code de quiz invalide."
		}
		s.addFlash(w, r, msg)
		http.Redirect(w, r, "/student/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/student/quiz/"+url.PathEscape(quiz.ID), http.StatusFound)
}

func (s *Server) quizPage(w http.ResponseWriter, r *http.Request) {
	quizID := strings.TrimSpace(chi.URLParam(r, "id"))
	p := s.pageFor(w, r, "Quiz")
	p.Data = quizID
	s.views.render(w, http.StatusOK, "quiz", p)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	student, ok := s.student(w, r)
	if !ok {
		return
	}
	p := s.pageFor(w, r, "Historique")
	entries, err := s.quizzes.History(r.Context(), student)
	if err != nil {
		p.Error = api.UserMessage(err, "Historique indisponible.")
		s.views.render(w, statusFor(err), "history", p)
		return
	}
	p.Data = entries
	s.views.render(w, http.StatusOK, "history", p)
}

func (s *Server) participation(w http.ResponseWriter, r *http.Request) {
	student, ok := s.student(w, r)
	if !ok {
		return
	}
	part, err := s.quizzes.Participation(r.Context(), student, chi.URLParam(r, "id"))
	if err != nil {
		if api.IsStatus(err, http.StatusNotFound) {
			s.notFound(w, r)
			return
		}
		s.addFlash(w, r, api.UserMessage(err, "Participation indisponible."))
		http.Redirect(w, r, "/student/history", http.StatusFound)
		return
	}
	p := s.pageFor(w, r, part.QuizTitle)
	p.Data = part
	s.views.render(w, http.StatusOK, "participation", p)
}

func statusFor(err error) int {
	var vErr *domain.ValidationError
	var apiErr *api.Error
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	default:
		return http.StatusBadGateway
	}
}
