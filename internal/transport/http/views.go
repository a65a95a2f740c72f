package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"flashmind-student/internal/app"
	"flashmind-student/internal/domain"
	"flashmind-student/internal/runner"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFiles = []struct {
	name string
	file string
}{
	{"home", "templates/home.html"},
	{"login", "templates/login.html"},
	{"signup", "templates/signup.html"},
	{"dashboard", "templates/dashboard.html"},
	{"quiz", "templates/quiz.html"},
	{"history", "templates/history.html"},
	{"participation", "templates/participation.html"},
	{"placeholder", "templates/placeholder.html"},
	{"not_found", "templates/not_found.html"},
}

// page is the data every template receives.
type page struct {
	Title   string
	User    *domain.Profile
	Flashes []string
	Error   string
	Data    any
}

type views struct {
	templates map[string]*template.Template
}

func loadViews() (*views, error) {
	funcMap := template.FuncMap{
		"difficulty": app.DifficultyClass,
		"elapsed":    runner.FormatElapsed,
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		},
		"date": func(v interface{ Format(string) string }) string {
			return v.Format("02/01/2006 15:04")
		},
	}
	templates := make(map[string]*template.Template, len(pageFiles))
	for _, p := range pageFiles {
		tmpl, err := template.New(p.name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", p.file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", p.name, err)
		}
		templates[p.name] = tmpl
	}
	return &views{templates: templates}, nil
}

// render buffers the output so a template error never produces half a page.
func (v *views) render(w http.ResponseWriter, status int, name string, data page) {
	tmpl, ok := v.templates[name]
	if !ok {
		http.Error(w, "unknown view", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
