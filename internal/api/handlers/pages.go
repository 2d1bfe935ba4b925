package handlers

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/uncommondata/server/internal/api/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type teamMember struct {
	Name string
	Role string
}

var teamMembers = []teamMember{
	{Name: "John Smith", Role: "Lead Developer"},
	{Name: "Jane Doe", Role: "Data Scientist"},
	{Name: "Bob Johnson", Role: "Frontend Expert"},
}

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// GET / and /index.html
func Index(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "index.html", map[string]any{
		"CurrentTime": time.Now().Format("15:04"), // 24-hour clock
		"TeamMembers": teamMembers,
	})
}

// GET /app/new/
func NewUserForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "new_user.html", nil)
}

// GET /app/uploads/ (harvester accounts only)
func UploadsPage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	uploads, err := visibleUploads(user)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type row struct {
		Institution      string
		Year             string
		URL              string
		OriginalFilename string
		Created          string
	}

	rows := make([]row, 0, len(uploads))
	for _, u := range uploads {
		var url string
		if u.URL != nil {
			url = *u.URL
		}
		rows = append(rows, row{
			Institution:      u.Institution,
			Year:             u.Year,
			URL:              url,
			OriginalFilename: u.OriginalFilename,
			Created:          u.CreatedAt.Format(timestampFormat),
		})
	}

	renderPage(w, "uploads.html", map[string]any{
		"Username": user.Username,
		"Uploads":  rows,
	})
}
