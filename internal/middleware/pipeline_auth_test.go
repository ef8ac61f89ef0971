package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// callPipeline sends a request through PipelineAuthMiddleware configured
// with configuredKey, presenting presentedKey (empty means no header).
func callPipeline(configuredKey, presentedKey string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(PipelineAuthMiddleware(configuredKey))
	r.POST("/ingest", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodPost, "/ingest", http.NoBody)
	if presentedKey != "" {
		req.Header.Set("X-API-Key", presentedKey)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCodeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return body.Error.Code
}

func TestPipelineAuthMiddleware_AcceptsTheConfiguredKey(t *testing.T) {
	rec := callPipeline("secret-pipeline-key", "secret-pipeline-key")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestPipelineAuthMiddleware_RejectsBadKeys(t *testing.T) {
	for name, presented := range map[string]string{
		"wrong_key":     "wrong-key",
		"missing_key":   "",
		"truncated_key": "secret-pipeline",
		"prefixed_key":  "xsecret-pipeline-key",
	} {
		t.Run(name, func(t *testing.T) {
			rec := callPipeline("secret-pipeline-key", presented)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if code := errorCodeOf(t, rec); code != "INVALID_API_KEY" {
				t.Errorf("error code = %q, want INVALID_API_KEY", code)
			}
		})
	}
}

func TestPipelineAuthMiddleware_UnconfiguredKeyDisablesEndpoints(t *testing.T) {
	// Even a lucky empty-for-empty match must not open the endpoints.
	for name, presented := range map[string]string{
		"with_key":    "any-key",
		"without_key": "",
	} {
		t.Run(name, func(t *testing.T) {
			rec := callPipeline("", presented)
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			if code := errorCodeOf(t, rec); code != "PIPELINE_NOT_CONFIGURED" {
				t.Errorf("error code = %q, want PIPELINE_NOT_CONFIGURED", code)
			}
		})
	}
}
