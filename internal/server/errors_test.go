package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/proposal-agent/internal/proposal"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"email conflict", &ErrEmailAlreadyExists{Email: "a@b.com"}, http.StatusConflict},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"user not found", &ErrUserNotFound{UserID: uuid.New()}, http.StatusNotFound},
		{"validation", &ErrValidation{Field: "domain", Message: "unknown"}, http.StatusBadRequest},
		{"job not found", proposal.ErrJobNotFound, http.StatusNotFound},
		{"wrapped job not found", fmt.Errorf("load: %w", proposal.ErrJobNotFound), http.StatusNotFound},
		{"analysis missing", proposal.ErrAnalysisMissing, http.StatusBadRequest},
		{"job not ready", proposal.ErrJobNotReady, http.StatusBadRequest},
		{"proposal missing", proposal.ErrProposalMissing, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&ErrEmailAlreadyExists{Email: "a@b.com"}).Error(), "a@b.com")
	assert.Equal(t, "invalid email or password", (&ErrInvalidCredentials{}).Error())

	id := uuid.New()
	assert.Contains(t, (&ErrUserNotFound{UserID: id}).Error(), id.String())
	assert.Contains(t, (&ErrValidation{Field: "domain", Message: "unknown"}).Error(), "domain")
}
