package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uncommondata/server/internal/api/middleware"
	"github.com/uncommondata/server/internal/models"
	"github.com/uncommondata/server/internal/repositories"
)

// guarded builds the same guard chain the router declares for API routes.
func guarded(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, cookie *http.Cookie, fields map[string]string, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/app/api/upload/", body)
	req.Header.Set("Content-Type", contentType)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	guarded(UploadFile).ServeHTTP(rec, req)
	return rec
}

func createTestUpload(t *testing.T, owner *models.User, institution, year string, createdAt time.Time) *models.Upload {
	t.Helper()

	upload := models.Upload{
		ID:               uuid.New(),
		UserID:           owner.ID,
		Institution:      institution,
		Year:             year,
		Path:             "2025/01/01/" + uuid.NewString() + "_report.pdf",
		OriginalFilename: "report.pdf",
		CreatedAt:        createdAt,
	}
	require.NoError(t, repositories.DB.Create(&upload).Error)
	return &upload
}

func TestUploadRequiresAuth(t *testing.T) {
	setupTestDB(t)

	rec := doUpload(t, nil, map[string]string{"institution": "UChicago", "year": "2024-2025"}, "cds.pdf", "data")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestUploadMissingFields(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "a@x.com", false)
	cookie := sessionCookie(t, user)

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
	}{
		{"missing institution", map[string]string{"year": "2024-2025"}, "cds.pdf"},
		{"missing year", map[string]string{"institution": "UChicago"}, "cds.pdf"},
		{"missing file", map[string]string{"institution": "UChicago", "year": "2024-2025"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doUpload(t, cookie, tt.fields, tt.filename, "data")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	var count int64
	repositories.DB.Model(&models.Upload{}).Count(&count)
	assert.Zero(t, count, "no record may be created on validation failure")
}

func TestUploadSuccess(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "a@x.com", false)
	cookie := sessionCookie(t, user)

	fields := map[string]string{
		"institution": "University of Chicago",
		"year":        "2024-2025",
		"url":         "https://example.com/cds",
	}
	rec := doUpload(t, cookie, fields, "cds_report.pdf", "report bytes")

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "created", resp["status"])

	var upload models.Upload
	require.NoError(t, repositories.DB.First(&upload, "id = ?", resp["id"]).Error)
	assert.Equal(t, user.ID, upload.UserID)
	assert.Equal(t, "University of Chicago", upload.Institution)
	assert.Equal(t, "2024-2025", upload.Year)
	require.NotNil(t, upload.URL)
	assert.Equal(t, "https://example.com/cds", *upload.URL)
	assert.Equal(t, "cds_report.pdf", upload.OriginalFilename)

	// The stored key is partitioned by upload date.
	assert.Equal(t, time.Now().Format("2006/01/02"), filepath.ToSlash(filepath.Dir(upload.Path)))

	store := repositories.Uploads.(*repositories.LocalStore)
	content, err := os.ReadFile(filepath.Join(store.Dir, filepath.FromSlash(upload.Path)))
	require.NoError(t, err)
	assert.Equal(t, "report bytes", string(content))
}

func TestUploadOptionalURL(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "a@x.com", false)
	cookie := sessionCookie(t, user)

	rec := doUpload(t, cookie, map[string]string{"institution": "NU", "year": "2023-2024"}, "data.csv", "a,b")
	require.Equal(t, http.StatusCreated, rec.Code)

	var upload models.Upload
	require.NoError(t, repositories.DB.First(&upload, "user_id = ?", user.ID).Error)
	assert.Nil(t, upload.URL)
}

func dumpFor(t *testing.T, cookie *http.Cookie) (int, map[string]uploadSummary) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/app/api/dump-uploads/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	guarded(DumpUploads).ServeHTTP(rec, req)

	var dump map[string]uploadSummary
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dump))
	}
	return rec.Code, dump
}

func TestDumpUploadsUnauthenticated(t *testing.T) {
	setupTestDB(t)

	code, _ := dumpFor(t, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDumpUploadsEmpty(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "a@x.com", false)

	code, dump := dumpFor(t, sessionCookie(t, user))
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, dump)
}

func TestDumpUploadsRoleScoping(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", "a@x.com", false)
	bob := createTestUser(t, "bob", "b@x.com", false)
	carol := createTestUser(t, "carol", "c@x.com", true)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	createTestUpload(t, alice, "UChicago", "2024-2025", base)
	aliceLatest := createTestUpload(t, alice, "NU", "2023-2024", base.Add(time.Hour))
	bobUpload := createTestUpload(t, bob, "UIUC", "2024-2025", base.Add(2*time.Hour))

	// Harvester: own uploads only.
	code, dump := dumpFor(t, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, dump, 2)
	for _, s := range dump {
		assert.Equal(t, "alice", s.User)
	}
	assert.NotContains(t, dump, bobUpload.ID.String())

	// Curator: everything.
	code, dump = dumpFor(t, sessionCookie(t, carol))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, dump, 3)
	assert.Contains(t, dump, bobUpload.ID.String())
	assert.Equal(t, "bob", dump[bobUpload.ID.String()].User)
	assert.Equal(t, "2025-03-01 13:00:00", dump[aliceLatest.ID.String()].Created)
}

func TestVisibleUploadsOrdering(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", "a@x.com", false)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := createTestUpload(t, alice, "UChicago", "2022-2023", base)
	middle := createTestUpload(t, alice, "NU", "2023-2024", base.Add(time.Hour))
	newest := createTestUpload(t, alice, "UIUC", "2024-2025", base.Add(2*time.Hour))

	uploads, err := visibleUploads(alice)
	require.NoError(t, err)
	require.Len(t, uploads, 3)
	assert.Equal(t, newest.ID, uploads[0].ID)
	assert.Equal(t, middle.ID, uploads[1].ID)
	assert.Equal(t, oldest.ID, uploads[2].ID)
}

func TestUploadsStatus(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", "a@x.com", false)

	req := httptest.NewRequest(http.MethodGet, "/app/api/uploads-status/", nil)
	req.AddCookie(sessionCookie(t, alice))
	rec := httptest.NewRecorder()
	guarded(UploadsStatus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.EqualValues(t, 0, status["count"])
	assert.Nil(t, status["latest"])

	createTestUpload(t, alice, "NU", "2023-2024", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/app/api/uploads-status/", nil)
	req.AddCookie(sessionCookie(t, alice))
	guarded(UploadsStatus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.EqualValues(t, 1, status["count"])
	assert.Equal(t, "2025-03-01 12:00:00", status["latest"])
}

func TestDumpDataGuardsAndCounts(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", "a@x.com", false)
	carol := createTestUser(t, "carol", "c@x.com", true)
	createTestUpload(t, alice, "UChicago", "2024-2025", time.Now())

	h := middleware.RequireCurator(http.HandlerFunc(DumpData))

	// Unauthenticated: 401 takes precedence over 403.
	req := httptest.NewRequest(http.MethodGet, "/app/api/dump-data/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authenticated harvester: forbidden.
	req = httptest.NewRequest(http.MethodGet, "/app/api/dump-data/", nil)
	req.AddCookie(sessionCookie(t, alice))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Curator: counts.
	req = httptest.NewRequest(http.MethodGet, "/app/api/dump-data/", nil)
	req.AddCookie(sessionCookie(t, carol))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.EqualValues(t, 1, counts["total_uploads"])
	assert.EqualValues(t, 2, counts["total_users"])
}

func TestUploadsPageRoles(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", "a@x.com", false)
	carol := createTestUser(t, "carol", "c@x.com", true)
	createTestUpload(t, alice, "UChicago", "2024-2025", time.Now())

	h := middleware.RequireHarvester(http.HandlerFunc(UploadsPage))

	req := httptest.NewRequest(http.MethodGet, "/app/uploads/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Curator accounts do not own uploads and are rejected.
	req = httptest.NewRequest(http.MethodGet, "/app/uploads/", nil)
	req.AddCookie(sessionCookie(t, carol))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/app/uploads/", nil)
	req.AddCookie(sessionCookie(t, alice))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "UChicago")
	assert.Contains(t, rec.Body.String(), "alice")
}
