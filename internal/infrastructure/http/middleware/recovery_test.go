package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRecovery(t *testing.T) {
	for _, expose := range []bool{false, true} {
		router := gin.New()
		router.Use(Recovery(expose))
		router.GET("/boom", func(c *gin.Context) {
			panic("registry exploded")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body.Error != "Internal Server Error" {
			t.Errorf("unexpected error %q", body.Error)
		}
		if expose && body.Details != "registry exploded" {
			t.Errorf("expected details, got %q", body.Details)
		}
		if !expose && body.Details != "" {
			t.Errorf("details must be hidden in production, got %q", body.Details)
		}
	}
}
