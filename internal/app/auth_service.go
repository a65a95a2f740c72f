package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"flashmind-student/internal/domain"
	"flashmind-student/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// MinPasswordLength mirrors the backend's password policy.
const MinPasswordLength = 8

// refreshSkew refreshes a token slightly before it expires.
const refreshSkew = 30 * time.Second

// LoginForm is the login screen input.
type LoginForm struct {
	Email    string `validate:"notblank"`
	Password string `validate:"notblank"`
}

// SignupForm is the signup screen input.
type SignupForm struct {
	Username        string `validate:"notblank"`
	Email           string `validate:"notblank,email"`
	Password        string `validate:"notblank,min=8"`
	ConfirmPassword string `validate:"eqfield=Password"`
	FirstName       string `validate:"notblank"`
	LastName        string `validate:"notblank"`
	Role            string `validate:"omitempty,oneof=student professor"`
}

// AuthService owns login, signup, logout and the stored credentials.
type AuthService struct {
	api      AuthAPI
	store    CredentialStore
	student  StudentAPIFactory
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(api AuthAPI, store CredentialStore, student StudentAPIFactory) *AuthService {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &AuthService{api: api, store: store, student: student, validate: v, now: time.Now}
}

// Login validates the form, authenticates against the backend and stores the credentials.
func (s *AuthService) Login(ctx context.Context, sid string, form LoginForm) (domain.Profile, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := s.check(form); err != nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return domain.Profile{}, err
	}
	resp, err := s.api.Login(ctx, form.Email, form.Password)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		return domain.Profile{}, err
	}
	if resp.Token == "" {
		metrics.Logins.WithLabelValues("failure").Inc()
		return domain.Profile{}, fmt.Errorf("login: empty token in response")
	}
	creds := resp.Credentials()
	if err := s.store.Save(ctx, sid, creds); err != nil {
		return domain.Profile{}, fmt.Errorf("store credentials: %w", err)
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return creds.User, nil
}

// Signup validates the form and creates the account. Nothing is stored; the
// student logs in afterwards.
func (s *AuthService) Signup(ctx context.Context, form SignupForm) error {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Role = strings.ToLower(strings.TrimSpace(form.Role))
	if err := s.check(form); err != nil {
		return err
	}
	role := domain.RoleStudent
	if form.Role != "" {
		parsed, err := domain.ParseRole(form.Role)
		if err != nil {
			return &domain.ValidationError{Field: "role", Message: "Veuillez choisir étudiant ou professeur !"}
		}
		role = parsed
	}
	return s.api.Signup(ctx, domain.SignupRequest{
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Role:      role,
	})
}

// Logout clears every stored key, then tells the backend. The local session
// is gone even when the stored data is unreadable or the backend call fails;
// that failure is returned.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	// The email is only needed for the backend call.
	creds, ok, loadErr := s.store.Load(ctx, sid)
	if err := s.store.Clear(ctx, sid); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	if loadErr != nil && !errors.Is(loadErr, domain.ErrCorruptCredentials) {
		return loadErr
	}
	if !ok || creds.User.Email == "" {
		return nil
	}
	if err := s.api.Logout(ctx, creds.User.Email); err != nil {
		return fmt.Errorf("remote logout: %w", err)
	}
	return nil
}

// CurrentUser returns the stored profile, if any. Unreadable credentials are
// dropped and the browser is treated as logged out.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (domain.Profile, bool, error) {
	if sid == "" {
		return domain.Profile{}, false, nil
	}
	creds, ok, err := s.store.Load(ctx, sid)
	if errors.Is(err, domain.ErrCorruptCredentials) {
		log.Printf("dropping unreadable session: %v", err)
		if err := s.store.Clear(ctx, sid); err != nil {
			return domain.Profile{}, false, fmt.Errorf("clear credentials: %w", err)
		}
		return domain.Profile{}, false, nil
	}
	if err != nil || !ok || creds.Token == "" {
		return domain.Profile{}, false, err
	}
	return creds.User, true, nil
}

// Student returns the backend client bound to this browser session.
func (s *AuthService) Student(ctx context.Context, sid string) (StudentAPI, error) {
	if _, ok, err := s.CurrentUser(ctx, sid); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return s.student(s.TokenSource(ctx, sid)), nil
}

// TokenSource serves the stored access token and refreshes it once its
// JWT expiry has passed.
func (s *AuthService) TokenSource(ctx context.Context, sid string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &sessionTokenSource{ctx: ctx, auth: s, sid: sid})
}

type sessionTokenSource struct {
	ctx  context.Context
	auth *AuthService
	sid  string
}

func (ts *sessionTokenSource) Token() (*oauth2.Token, error) {
	creds, ok, err := ts.auth.store.Load(ts.ctx, ts.sid)
	if err != nil {
		return nil, err
	}
	if !ok || creds.Token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	expiry := TokenExpiry(creds.Token)
	if !expiry.IsZero() && !ts.auth.now().Before(expiry.Add(-refreshSkew)) && creds.RefreshToken != "" {
		resp, err := ts.auth.api.Refresh(ts.ctx, creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
		refreshed := resp.Credentials()
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = creds.RefreshToken
		}
		if refreshed.User.Email == "" {
			refreshed.User = creds.User
		}
		if err := ts.auth.store.Save(ts.ctx, ts.sid, refreshed); err != nil {
			return nil, fmt.Errorf("store refreshed credentials: %w", err)
		}
		creds = refreshed
		expiry = TokenExpiry(creds.Token)
	}

	return &oauth2.Token{
		AccessToken:  creds.Token,
		TokenType:    "Bearer",
		RefreshToken: creds.RefreshToken,
		Expiry:       expiry,
	}, nil
}

// TokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority on validity. Zero means unknown.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// check runs the validator and reports the most relevant failure first:
// missing fields, then a bad email, then a password mismatch, then length.
func (s *AuthService) check(form any) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	best := fieldErrs[0]
	for _, fe := range fieldErrs[1:] {
		if tagRank(fe.Tag()) < tagRank(best.Tag()) {
			best = fe
		}
	}
	return &domain.ValidationError{Field: best.Field(), Message: validationMessage(best)}
}

func tagRank(tag string) int {
	switch tag {
	case "notblank":
		return 0
	case "email":
		return 1
	case "eqfield":
		return 2
	case "min":
		return 3
	default:
		return 4
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "Veuillez remplir tous les champs obligatoires !"
	case "email":
		return "Veuillez entrer une adresse email valide !"
	case "eqfield":
		return "Les mots de passe ne correspondent pas !"
	case "min":
		return fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères !", MinPasswordLength)
	case "oneof":
		return "Veuillez choisir étudiant ou professeur !"
	default:
		return fmt.Sprintf("Champ invalide : %s", strings.ToLower(fe.Field()))
	}
}
