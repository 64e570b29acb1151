package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBufferFlush(t *testing.T) {
	buf := NewResponseBuffer()
	assert.Zero(t, buf.Status())
	assert.Nil(t, buf.Body())

	buf.Header().Set("content-type", "application/json")
	buf.WriteHeader(http.StatusCreated)
	buf.WriteHeader(http.StatusTeapot)
	_, err := buf.Write([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, buf.Status())

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("content-type"))
	assert.Equal(t, `{}`, rec.Body.String())
}

func TestResponseBufferWriteImpliesOK(t *testing.T) {
	buf := NewResponseBuffer()
	_, _ = buf.Write([]byte("hi"))
	assert.Equal(t, http.StatusOK, buf.Status())
}

func TestLogInvalid(t *testing.T) {
	type payload struct {
		UUID string `validate:"required,uuid"`
	}
	err := validator.New().Struct(payload{UUID: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	LogInvalid(rec, "test.validate", err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload.UUID (uuid)")

	rec = httptest.NewRecorder()
	LogInvalid(rec, "test.validate", errors.New("bad input"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad input")
}
