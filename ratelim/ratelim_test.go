package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestLimitPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusNoContent)
	})

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/planTrip", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:5000"))
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5002"), "same IP, new port")
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.2:5000"))
}
