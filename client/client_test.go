package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authmodels "onspace/services/auth-service/models"
	reportmodels "onspace/services/report-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn_StoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "maria@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":  authmodels.User{ID: "u1", Email: "maria@example.com", FullName: "Maria Silva", Role: "citizen"},
			"token": "tok-123",
		})
	}))
	defer srv.Close()

	c := New(Config{AuthURL: srv.URL})
	user, err := c.SignIn(context.Background(), "maria@example.com", "senha-secreta")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	session := c.Session()
	assert.Equal(t, "tok-123", session.Token)
	assert.Equal(t, "Maria Silva", session.User.FullName)

	c.SignOut()
	assert.Empty(t, c.Session().Token)
	assert.Nil(t, c.Session().User)
}

func TestSignIn_WrongPasswordIssuesNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Senha incorreta. Tente novamente."})
	}))
	defer srv.Close()

	c := New(Config{AuthURL: srv.URL})
	user, err := c.SignIn(context.Background(), "maria@example.com", "senha-errada")

	require.Error(t, err)
	assert.Nil(t, user)
	assert.Empty(t, c.Session().Token)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Senha incorreta. Tente novamente.", apiErr.Message)
}

func TestCreateReport_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/reports", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var input CreateReportInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		require.Equal(t, "Buraco na Rua X", input.Title)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(reportmodels.Report{
			ID:          "r1",
			UserID:      "u1",
			Title:       input.Title,
			Description: input.Description,
			Category:    input.Category,
			Status:      "pendente",
		})
	}))
	defer srv.Close()

	c := New(Config{ReportURL: srv.URL})
	c.mu.Lock()
	c.session = Session{Token: "tok-123"}
	c.mu.Unlock()

	lat, lng := -20.44, -54.62
	report, err := c.CreateReport(context.Background(), CreateReportInput{
		Title:       "Buraco na Rua X",
		Description: "Grande",
		Category:    "buraco",
		Latitude:    &lat,
		Longitude:   &lng,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "pendente", report.Status)
	assert.Equal(t, "u1", report.UserID)
}

func TestUpdateReport_PartialPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/reports/r1", r.URL.Path)

		var patch map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		require.Equal(t, "resolvido", patch["status"])
		_, hasDept := patch["department"]
		require.False(t, hasDept, "unset fields must not be sent")

		json.NewEncoder(w).Encode(reportmodels.Report{
			ID:     "r1",
			Title:  "Buraco na Rua X",
			Status: "resolvido",
		})
	}))
	defer srv.Close()

	c := New(Config{ReportURL: srv.URL})
	status := "resolvido"
	report, err := c.UpdateReport(context.Background(), "r1", ReportPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "resolvido", report.Status)
	assert.Equal(t, "Buraco na Rua X", report.Title)
}

func TestUploadPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/uploads", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "pothole.jpg", header.Filename)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"imageUrl": "http://cdn/report-photos/abc.jpg"})
	}))
	defer srv.Close()

	c := New(Config{MediaURL: srv.URL})
	url, err := c.UploadPhoto(context.Background(), "pothole.jpg", "image/jpeg", strings.NewReader("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/report-photos/abc.jpg", url)
}

func TestReport_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Report not found"})
	}))
	defer srv.Close()

	c := New(Config{ReportURL: srv.URL})
	_, err := c.Report(context.Background(), "missing")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
