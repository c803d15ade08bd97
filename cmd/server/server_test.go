package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/coursewizard"
	"github.com/brunobiangulo/coursewizard/schedule"
)

func newTestServer(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	cfg := coursewizard.DefaultConfig()
	cfg.CORSOrigins = origins
	engine, err := coursewizard.New(cfg,
		coursewizard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		coursewizard.WithTimezone(time.UTC),
	)
	require.NoError(t, err)
	return newServer(engine, newMetrics())
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Parsing routes
// ---------------------------------------------------------------------------

func TestParseScheduleRoute(t *testing.T) {
	h := newTestServer(t)
	rec := postJSON(t, h, "/schedule/parse", map[string]string{
		"text": "Modulo 1 - 15/01/2024 09:00 - 18:00 - Ufficio\n16/01/2024 14:00 - 18:00 - Online",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var cal struct {
		TotalHours    float64 `json:"totalHours"`
		PresenceHours float64 `json:"presenceHours"`
		OnlineHours   float64 `json:"onlineHours"`
		Lessons       []json.RawMessage
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cal))
	assert.Len(t, cal.Lessons, 2)
	assert.Equal(t, 12.0, cal.TotalHours)
	assert.Equal(t, 8.0, cal.PresenceHours)
	assert.Equal(t, 4.0, cal.OnlineHours)
}

func TestParseRoutesRejectBadJSON(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/schedule/parse", "/course-table/parse", "/participants/parse", "/participants/reorder"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestParseCourseTableRoute(t *testing.T) {
	h := newTestServer(t)

	rec := postJSON(t, h, "/course-table/parse", map[string]string{"text": "solo intestazione"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	pasted := "Corso\tProgetto\tSezione\tCalendario\tEnte\tDocente\tOre\n" +
		"Saldatura\tPRJ-7\t1\t15/01/2024 09:00 - 13:00\tEnte Srl\tLuca Blu\t4\n"
	rec = postJSON(t, h, "/course-table/parse", map[string]string{"text": pasted})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Course coursewizard.CourseData `json:"course"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PRJ-7", body.Course.ProjectID)
	assert.Equal(t, 4.0, body.Course.Calendar.TotalHours)
}

func TestParticipantsRoutes(t *testing.T) {
	h := newTestServer(t)
	pasted := "1\tMario Rossi\tRSSMRA80A01H501U\t333\tm@x.it\t01/01/1980\tRoma\tRoma\tDiploma\tBruni\tSI\n" +
		"2\tAnna Bianchi\tBNCNNA85M41F205X\t334\ta@x.it\t01/08/1985\tMilano\tMilano\tLaurea\tBruni\tNO\n" +
		"3\tLuca Verdi\tVRDLCU90C12L219P\t335\tl@x.it\t12/03/1990\tTorino\tTorino\tDiploma\tNeri\t\n"

	rec := postJSON(t, h, "/participants/parse", map[string]string{"text": pasted})
	require.Equal(t, http.StatusOK, rec.Code)
	var parsed struct {
		Participants []map[string]interface{} `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Len(t, parsed.Participants, 3)

	rec = postJSON(t, h, "/participants/reorder", map[string]interface{}{
		"participants": parsed.Participants,
		"op":           "move",
		"from":         3,
		"to":           1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var moved struct {
		Participants []struct {
			ID      int    `json:"id"`
			Surname string `json:"cognome"`
		} `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	require.Len(t, moved.Participants, 3)
	assert.Equal(t, "Verdi", moved.Participants[0].Surname)
	assert.Equal(t, 1, moved.Participants[0].ID)

	rec = postJSON(t, h, "/participants/reorder", map[string]interface{}{
		"participants": parsed.Participants, "op": "swap", "from": 1, "to": 9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/participants/reorder", map[string]interface{}{
		"participants": parsed.Participants, "op": "shuffle",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte, fileField string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestExtractRoute(t *testing.T) {
	h := newTestServer(t)
	body, ctype := multipartBody(t, nil, map[string][]byte{
		"note.txt": []byte("ID Progetto: P-9\nSede: Milano\n15/01/2024 09:00 - 13:00 - Ufficio\n"),
	}, "files")

	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Result struct {
			Method string `json:"method"`
		} `json:"result"`
		Course coursewizard.CourseData `json:"course"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "text", got.Result.Method)
	assert.Equal(t, "P-9", got.Course.ProjectID)
	assert.Equal(t, "Milano", got.Course.Location)
	assert.Len(t, got.Course.Calendar.Lessons, 1)
}

func TestExtractRouteRequiresFiles(t *testing.T) {
	h := newTestServer(t)

	body, ctype := multipartBody(t, map[string]string{"note": "x"}, nil, "files")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func testCourse() coursewizard.CourseData {
	return coursewizard.CourseData{ProjectID: "PRJ-1", CourseName: "Saldatura", Location: "Milano"}
}

func TestExportRouteICS(t *testing.T) {
	h := newTestServer(t)
	payload := testCourse().WithSchedule([]schedule.Lesson{{
		Subject: "Lezione", Date: "15/01/2024", StartTime: "09:00",
		EndTime: "13:00", Location: schedule.LocationOffice, Hours: 4,
	}})

	rec := postJSON(t, h, "/export/ics", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="corso_PRJ-1.ics"`)
	assert.Contains(t, rec.Body.String(), "BEGIN:VEVENT")

	rec = postJSON(t, h, "/export/links", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	var links struct {
		Links []struct {
			Google string `json:"google"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	require.Len(t, links.Links, 1)
	assert.Contains(t, links.Links[0].Google, "calendar.google.com")
}

func TestExportRouteErrors(t *testing.T) {
	h := newTestServer(t)

	rec := postJSON(t, h, "/export/odt", testCourse())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// ICS needs at least one lesson.
	rec = postJSON(t, h, "/export/ics", testCourse())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// DOCX needs a template upload.
	rec = postJSON(t, h, "/export/docx", testCourse())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/export/ics", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExportRouteMultipartCourseField(t *testing.T) {
	h := newTestServer(t)
	raw, err := json.Marshal(testCourse())
	require.NoError(t, err)

	body, ctype := multipartBody(t, map[string]string{"course": string(raw)}, nil, "template")
	req := httptest.NewRequest(http.MethodPost, "/export/xlsx", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	body, ctype = multipartBody(t, map[string]string{"course": "{broken"}, nil, "template")
	req = httptest.NewRequest(http.MethodPost, "/export/xlsx", body)
	req.Header.Set("Content-Type", ctype)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Middleware and ops endpoints
// ---------------------------------------------------------------------------

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coursewizard_http_requests_total{method="GET",route="GET /health",status="200"} 1`)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, "https://wizard.example.org")

	req := httptest.NewRequest(http.MethodOptions, "/schedule/parse", nil)
	req.Header.Set("Origin", "https://wizard.example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://wizard.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Unresolved-Variables")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://other.example.org")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	wildcard := newTestServer(t, "*")
	rec = httptest.NewRecorder()
	wildcard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

// ---------------------------------------------------------------------------
// Configuration helpers
// ---------------------------------------------------------------------------

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"COURSEWIZARD_ADDR":             ":9090",
		"COURSEWIZARD_LOG_LEVEL":        "DEBUG",
		"COURSEWIZARD_TIMEZONE":         "UTC",
		"COURSEWIZARD_MAX_TEXT_BYTES":   "4096",
		"COURSEWIZARD_MAX_UPLOAD_BYTES": "not-a-number",
		"COURSEWIZARD_MOCK_FALLBACK":    "false",
		"COURSEWIZARD_CORS_ORIGINS":     "https://a.example, ,https://b.example",
	}
	cfg := coursewizard.DefaultConfig()
	applyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 4096, cfg.MaxTextBytes)
	assert.Equal(t, coursewizard.DefaultConfig().MaxUploadBytes, cfg.MaxUploadBytes)
	assert.False(t, cfg.MockFallback)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
