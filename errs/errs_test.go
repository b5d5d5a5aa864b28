package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("plan: %w", Upstream(base))

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, Is(err, KindUpstream))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
	assert.NotContains(t, PublicMessage(err), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad", nil), http.StatusBadRequest},
		{Content(errors.New("x")), http.StatusUnprocessableEntity},
		{Persistence(errors.New("x")), http.StatusServiceUnavailable},
		{Session("session expired", nil), http.StatusConflict},
		{NotFound("itinerary not found"), http.StatusNotFound},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(KindOf(tt.err).String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestValidationFields(t *testing.T) {
	err := Validation("invalid request", map[string]string{"budget": "must be no less than 0"})
	assert.Equal(t, "must be no less than 0", FieldsOf(err)["budget"])
	assert.Nil(t, FieldsOf(errors.New("other")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("secret detail")))
}
