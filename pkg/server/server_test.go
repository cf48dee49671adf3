package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parsisearch/jostoju/pkg/compression"
	"github.com/parsisearch/jostoju/pkg/corpus"
	"github.com/parsisearch/jostoju/pkg/index"
)

// buildFixture writes a tiny index artifact and metadata side-output under
// tmpDir and returns their paths, exercising the same Build -> Save path
// cmd/indexer uses.
func buildFixture(t *testing.T, tmpDir string) (string, string) {
	t.Helper()

	col := corpus.Collection{
		"doc1": {DocID: "doc1", URL: "https://example.com/a", Title: "جستجوی وب فارسی", Body: "موتور جستجوی فارسی برای وب"},
		"doc2": {DocID: "doc2", URL: "https://example.com/b", Title: "اخبار ورزشی امروز", Body: "نتایج مسابقات فوتبال"},
	}

	snap, _, err := index.Build(col, index.BuildOptions{})
	if err != nil {
		t.Fatalf("index.Build: %v", err)
	}

	indexPath := filepath.Join(tmpDir, "index.bin")
	if err := index.Save(indexPath, snap, compression.DefaultConfig()); err != nil {
		t.Fatalf("index.Save: %v", err)
	}

	metadataPath := filepath.Join(tmpDir, "metadata.json")
	meta := corpus.Metadata{
		"doc1": {URL: col["doc1"].URL, Title: col["doc1"].Title},
		"doc2": {URL: col["doc2"].URL, Title: col["doc2"].Title},
	}
	if err := corpus.WriteMetadata(metadataPath, meta); err != nil {
		t.Fatalf("corpus.WriteMetadata: %v", err)
	}

	return indexPath, metadataPath
}

func setupTestServer(t *testing.T) (*Server, func()) {
	tmpDir, err := os.MkdirTemp("", "jostoju-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	indexPath, metadataPath := buildFixture(t, tmpDir)

	config := DefaultConfig()
	config.Host = "localhost"
	config.Port = 0
	config.IndexPath = indexPath
	config.MetadataPath = metadataPath
	config.EnableLogging = false

	srv, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	cleanup := func() {
		os.RemoveAll(tmpDir)
	}

	return srv, cleanup
}

func makeRequest(t *testing.T, srv *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	var response map[string]interface{}
	if rr.Body.Len() > 0 {
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}

	return rr, response
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	rr, resp := makeRequest(t, srv, "GET", "/healthz", nil)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	result := resp["result"].(map[string]interface{})
	if status := result["status"]; status != "healthy" {
		t.Errorf("Expected status=healthy, got %v", status)
	}
	if loaded, _ := result["index_loaded"].(bool); !loaded {
		t.Error("Expected index_loaded=true")
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	rr, resp := makeRequest(t, srv, "GET", "/stats", nil)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	result := resp["result"].(map[string]interface{})
	if _, exists := result["build_report"]; !exists {
		t.Error("Expected build_report field in stats")
	}
	if _, exists := result["cache"]; !exists {
		t.Error("Expected cache field in stats")
	}
}

func TestSearchEndpointBagOfWords(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	rr, resp := makeRequest(t, srv, "GET", "/search?q="+"%D8%AC%D8%B3%D8%AA%D8%AC%D9%88%DB%8C", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", rr.Code, resp)
	}

	result := resp["result"].(map[string]interface{})
	results := result["results"].([]interface{})
	if len(results) == 0 {
		t.Error("Expected at least one result for a matching term")
	}
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	rr, resp := makeRequest(t, srv, "GET", "/search", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	result := resp["result"].(map[string]interface{})
	results := result["results"].([]interface{})
	if len(results) != 0 {
		t.Errorf("Expected empty results for an empty query, got %d", len(results))
	}
}

func TestSearchEndpointPostWithOptions(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	body := map[string]interface{}{
		"q":            "فوتبال",
		"title_weight": 0.9,
		"body_weight":  0.1,
	}

	rr, resp := makeRequest(t, srv, "POST", "/search", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", rr.Code, resp)
	}
}

func TestSearchEndpointUsesCacheOnSecondCall(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	_, first := makeRequest(t, srv, "GET", "/search?q=اخبار", nil)
	if cached, _ := first["result"].(map[string]interface{})["cached"].(bool); cached {
		t.Error("Expected first call to be a cache miss")
	}

	_, second := makeRequest(t, srv, "GET", "/search?q=اخبار", nil)
	if cached, _ := second["result"].(map[string]interface{})["cached"].(bool); !cached {
		t.Error("Expected second identical call to be served from cache")
	}
}

func TestReloadEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	rr, resp := makeRequest(t, srv, "POST", "/admin/reload", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", rr.Code, resp)
	}

	result := resp["result"].(map[string]interface{})
	if _, exists := result["build_report"]; !exists {
		t.Error("Expected build_report in reload response")
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	rr := httptest.NewRecorder()

	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 for OPTIONS, got %d", rr.Code)
	}

	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin == "" {
		t.Error("Expected Access-Control-Allow-Origin header")
	}
}

func TestPrometheusMetricsEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	makeRequest(t, srv, "GET", "/search?q=جستجو", nil)

	req := httptest.NewRequest("GET", "/_metrics", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	contentType := rr.Header().Get("Content-Type")
	if contentType != "text/plain; version=0.0.4; charset=utf-8" {
		t.Errorf("Expected Prometheus content type, got %s", contentType)
	}

	body := rr.Body.String()
	for _, metric := range []string{"jostoju_searches_total", "# TYPE", "# HELP"} {
		if !bytes.Contains([]byte(body), []byte(metric)) {
			t.Errorf("Expected metric %s not found in response", metric)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Host != "localhost" {
		t.Errorf("Expected host=localhost, got %s", config.Host)
	}
	if config.Port != 8080 {
		t.Errorf("Expected port=8080, got %d", config.Port)
	}
	if config.ReadTimeout != 30*time.Second {
		t.Errorf("Expected read timeout=30s, got %v", config.ReadTimeout)
	}
	if !config.EnableCORS {
		t.Error("Expected CORS to be enabled by default")
	}
	if config.RankOptions.TitleWeight != 0.7 {
		t.Errorf("Expected default title weight 0.7, got %v", config.RankOptions.TitleWeight)
	}
}

func TestShutdown(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	if err := srv.Shutdown(); err != nil {
		t.Errorf("Expected Shutdown to succeed, got error: %v", err)
	}
}

func TestBadJSONRequest(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest("POST", "/search", bytes.NewBufferString("{invalid json}"))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad JSON, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)

	if errorType := resp["error"]; errorType != "BadRequest" {
		t.Errorf("Expected error=BadRequest, got %v", errorType)
	}
}
