package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/engine"
	"github.com/ivlev/text2video/internal/render"
	"github.com/ivlev/text2video/internal/video"
)

const sampleContent = `[SLIDE_START]
[TITLE_START]Introduction[TITLE_END]
[BULLET_START]First point[BULLET_END]
[BULLET_START]Second point[BULLET_END]
[SLIDE_END]`

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.WorkspaceDir = t.TempDir()
	project := engine.NewProject(cfg, render.NewRaster(render.NewFontCache()), video.NewAssembler("", 0))

	r := gin.New()
	NewServer(cfg, project).Routes(r)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad JSON response: %v\n%s", err, w.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if resp := decode(t, w); resp["status"] != "healthy" {
		t.Errorf("Unexpected body: %v", resp)
	}
}

func TestValidateInput(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/validate-input", gin.H{"content": sampleContent})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	resp := decode(t, w)
	if resp["slide_count"] != float64(1) {
		t.Errorf("slide_count = %v, want 1", resp["slide_count"])
	}
	if resp["total_content_lines"] != float64(2) {
		t.Errorf("total_content_lines = %v, want 2", resp["total_content_lines"])
	}
}

func TestValidateInputMalformed(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/validate-input", gin.H{"content": "[SLIDE_START][TITLE_START]X[TITLE_END]"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
	resp := decode(t, w)
	if !strings.Contains(resp["error"].(string), "unclosed") {
		t.Errorf("Unexpected error: %v", resp["error"])
	}
}

func TestValidateInputMissingContent(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/validate-input", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
}

func TestValidateInputFile(t *testing.T) {
	r := testRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "input.txt")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	fw.Write([]byte(sampleContent))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate-input-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}
}

func TestValidateInputFileWrongExtension(t *testing.T) {
	r := testRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "slides.pdf")
	fw.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate-input-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
}

func TestCreatePlan(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/create-plan", gin.H{"content": sampleContent, "theme_name": "modern_dark"})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	resp := decode(t, w)
	theme := resp["theme"].(map[string]any)
	if theme["name"] != "modern_dark" {
		t.Errorf("Theme = %v", theme["name"])
	}
	// 2 bullets -> 3+2 = 5 seconds.
	if resp["total_duration"] != float64(5) {
		t.Errorf("total_duration = %v, want 5", resp["total_duration"])
	}
}

func TestCreatePlanUnknownThemeFallsBack(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/create-plan", gin.H{"content": sampleContent, "theme_name": "neon_chrome"})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	resp := decode(t, w)
	theme := resp["theme"].(map[string]any)
	if theme["name"] != "corporate_blue" {
		t.Errorf("Expected default theme, got %v", theme["name"])
	}
}

func TestListThemes(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/themes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["count"] != float64(4) {
		t.Errorf("count = %v, want 4", resp["count"])
	}
}

func TestRenderSlides(t *testing.T) {
	r := testRouter(t)

	w := postJSON(t, r, "/api/v1/render-slides", gin.H{"content": sampleContent})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	resp := decode(t, w)
	names := resp["slide_filenames"].([]any)
	if len(names) != 1 || names[0] != "slide_001.png" {
		t.Errorf("slide_filenames = %v", names)
	}
}

func TestDownloadSlideTraversalGuard(t *testing.T) {
	r := testRouter(t)

	for _, name := range []string{"..%2F..%2Fetc%2Fpasswd", ".hidden"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/download-slide/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestDownloadSlide(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.WorkspaceDir = t.TempDir()
	project := engine.NewProject(cfg, render.NewRaster(render.NewFontCache()), video.NewAssembler("", 0))

	r := gin.New()
	NewServer(cfg, project).Routes(r)

	// Render first so the slide exists on disk.
	w := postJSON(t, r, "/api/v1/render-slides", gin.H{"content": sampleContent})
	if w.Code != http.StatusOK {
		t.Fatalf("render-slides status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download-slide/slide_001.png", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
}
