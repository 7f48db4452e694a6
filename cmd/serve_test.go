package cmd

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	cfgpkg "github.com/KaramelBytes/dataclean-cli/internal/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	withHome(t)
	gin.SetMode(gin.TestMode)
	c, err := cfgpkg.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	log, _ := test.NewNullLogger()
	return newRouter(c, log)
}

func uploadRequest(t *testing.T, url, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("dataset", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServe_Healthz(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected healthz response %d %s", w.Code, w.Body.String())
	}
}

func TestServe_ProfileUploadAndRuns(t *testing.T) {
	r := newTestRouter(t)
	data, err := os.ReadFile(writeFixture(t, t.TempDir(), 0))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/profile?save=true", "data.csv", data))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Summary struct {
			Name     string   `json:"name"`
			Rows     int      `json:"rows"`
			Constant []string `json:"constant_columns"`
		} `json:"summary"`
		Head [][]string `json:"head"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Summary.Name != "data.csv" || resp.Summary.Rows != 30 || len(resp.Head) != 5 {
		t.Fatalf("unexpected summary %+v", resp)
	}
	if len(resp.Summary.Constant) != 1 || resp.Summary.Constant[0] != "const" {
		t.Fatalf("expected const as constant column, got %v", resp.Summary.Constant)
	}
	id := w.Header().Get("X-Run-ID")
	if id == "" {
		t.Fatalf("expected X-Run-ID header when saving")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), id) {
		t.Fatalf("expected run %s in listing: %d %s", id, w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected saved run, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/00000000-0000-0000-0000-000000000000", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run, got %d", w.Code)
	}
}

func TestServe_ProfileRejectsBadInput(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/profile", "data.parquet", []byte("x")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported type, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/profile?method=distance", "data.csv", []byte("a,b\n1,2\n3,4\n")))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "correlation method") {
		t.Fatalf("expected 400 for invalid method, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/profile", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", w.Code)
	}
}

func TestServe_ProfileText(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/profile?text=true", "small.csv", []byte("a,b\n1,x\n2,y\n3,z\n")))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "[DATASET SUMMARY]") {
		t.Fatalf("unexpected text response %d %s", w.Code, w.Body.String())
	}
}

func TestServe_ProfileRejectsOversizedUpload(t *testing.T) {
	r := newTestRouter(t)
	prev := maxUploadSize
	maxUploadSize = 1024
	t.Cleanup(func() { maxUploadSize = prev })

	var body bytes.Buffer
	body.WriteString("a,b\n")
	for body.Len() < 8*1024 {
		body.WriteString("12345,67890\n")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/profile", "big.csv", body.Bytes()))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized upload, got %d %s", w.Code, w.Body.String())
	}
}
