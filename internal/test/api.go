package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Format of Request helper ExecuteAPITest() handles
type RequestAPITest struct {
	Method       string            // Method of API request - [GET, POST, PUT, DELETE . . .]
	Path         string            // API Path
	Body         interface{}       // Request Body, marshalled to JSON unless already an io.Reader
	WantResponse []int             // Expected Response according to request
	Headers      map[string]string // Request headers
}

// Helper to execute API tests, returns the recorder so callers can inspect the body.
func ExecuteAPITest(t *testing.T, router *gin.Engine, request RequestAPITest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	switch b := request.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("couldn't marshal request body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, reqerr := http.NewRequest(request.Method, request.Path, body)
	if reqerr != nil {
		t.Fatalf("couldn't build request: %v", reqerr)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, val := range request.Headers {
		req.Header.Set(key, val)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, request.WantResponse, w.Code, "unexpected status for %s %s: %s", request.Method, request.Path, w.Body.String())
	return w
}

// Bearer builds the Authorization header for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
