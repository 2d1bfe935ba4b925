package handlers

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uncommondata/server/internal/api/middleware"
	"github.com/uncommondata/server/internal/models"
	"github.com/uncommondata/server/internal/repositories"
	"github.com/uncommondata/server/internal/utils"
	"golang.org/x/sync/errgroup"
)

// timestampFormat is the wire format for upload creation times.
const timestampFormat = "2006-01-02 15:04:05"

const maxUploadSize = 100 << 20 // 100 MB

// POST /app/api/upload/
// UploadFile godoc
// @Summary Submit a data-set file
// @Description Stores the file under a date-partitioned key and records the upload for the calling account.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param institution formData string true "Institution name"
// @Param year formData string true "Reporting period, e.g. 2024-2025"
// @Param url formData string false "Source URL"
// @Param file formData file true "File to upload"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /app/api/upload/ [post]
func UploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid upload form")
		return
	}

	institution := strings.TrimSpace(r.FormValue("institution"))
	year := strings.TrimSpace(r.FormValue("year"))
	urlStr := strings.TrimSpace(r.FormValue("url"))

	if institution == "" || year == "" {
		utils.JSONError(w, http.StatusBadRequest, "institution and year are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	id := uuid.New()
	key := repositories.UploadKey(id, time.Now(), header.Filename)

	if err := repositories.Uploads.Save(r.Context(), key, file); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	originalFilename := header.Filename
	if originalFilename == "" {
		originalFilename = path.Base(key)
	}

	var url *string
	if urlStr != "" {
		url = &urlStr
	}

	upload := models.Upload{
		ID:               id,
		UserID:           user.ID,
		Institution:      institution,
		Year:             year,
		URL:              url,
		Path:             key,
		OriginalFilename: originalFilename,
	}

	if err := repositories.DB.Create(&upload).Error; err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to record upload")
		return
	}

	utils.JSONResponse(w, http.StatusCreated, map[string]string{
		"status": "created",
		"id":     upload.ID.String(),
	})
}

type uploadSummary struct {
	User             string  `json:"user"`
	Institution      string  `json:"institution"`
	Year             string  `json:"year"`
	URL              *string `json:"url"`
	OriginalFilename string  `json:"original_filename"`
	Created          string  `json:"created"`
}

// visibleUploads returns the uploads the account may read, newest first:
// curators see every upload, harvesters only their own.
func visibleUploads(user *models.User) ([]models.Upload, error) {
	q := repositories.DB.Preload("User").Order("created_at DESC")
	if !user.Profile.IsCurator {
		q = q.Where("user_id = ?", user.ID)
	}

	var uploads []models.Upload
	if err := q.Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

// GET /app/api/dump-uploads/
// DumpUploads godoc
// @Summary Dump readable uploads
// @Description Returns a JSON object keyed by upload id. Curators see all uploads, harvesters their own.
// @Tags Uploads
// @Produce json
// @Success 200 {object} map[string]uploadSummary
// @Failure 401 {object} map[string]string
// @Router /app/api/dump-uploads/ [get]
func DumpUploads(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	uploads, err := visibleUploads(user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to load uploads")
		return
	}

	// An account with no uploads gets an empty object, not padding.
	dump := make(map[string]uploadSummary, len(uploads))
	for _, u := range uploads {
		dump[u.ID.String()] = uploadSummary{
			User:             u.User.Username,
			Institution:      u.Institution,
			Year:             u.Year,
			URL:              u.URL,
			OriginalFilename: u.OriginalFilename,
			Created:          u.CreatedAt.Format(timestampFormat),
		}
	}

	utils.JSONResponse(w, http.StatusOK, dump)
}

// GET /app/api/uploads-check/
// Same contract as DumpUploads; kept as a separate route for clients
// polling upload visibility.
func UploadsCheck(w http.ResponseWriter, r *http.Request) {
	DumpUploads(w, r)
}

// GET /app/api/uploads-status/
func UploadsStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	uploads, err := visibleUploads(user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to load uploads")
		return
	}

	var latest any
	if len(uploads) > 0 {
		latest = uploads[0].CreatedAt.Format(timestampFormat)
	}

	utils.JSONResponse(w, http.StatusOK, map[string]any{
		"count":  len(uploads),
		"latest": latest,
	})
}

// GET /app/api/dump-data/
// DumpData godoc
// @Summary Aggregate counts (curator only)
// @Description Snapshot of total uploads and total accounts.
// @Tags Uploads
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /app/api/dump-data/ [get]
func DumpData(w http.ResponseWriter, r *http.Request) {
	var totalUploads, totalUsers int64

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return repositories.DB.WithContext(ctx).Model(&models.Upload{}).Count(&totalUploads).Error
	})
	g.Go(func() error {
		return repositories.DB.WithContext(ctx).Model(&models.User{}).Count(&totalUsers).Error
	})

	if err := g.Wait(); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to load counts")
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]int64{
		"total_uploads": totalUploads,
		"total_users":   totalUsers,
	})
}
