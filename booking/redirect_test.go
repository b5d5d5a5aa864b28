package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirect(t *testing.T) {
	b := NewRedirector("")
	tests := map[string]string{
		"/api/v1/booking/redirect?destination=Goa":       "https://example-booking-site.com/search?place=Goa",
		"/api/v1/booking/redirect?destination=New+Delhi": "https://example-booking-site.com/search?place=New+Delhi",
		"/api/v1/booking/redirect":                       "https://example-booking-site.com/search?place=Unknown",
	}
	for path, want := range tests {
		rec := httptest.NewRecorder()
		b.Redirect(rec, httptest.NewRequest(http.MethodGet, path, nil), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			RedirectURL string `json:"redirectUrl"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, want, body.RedirectURL, path)
	}
}
