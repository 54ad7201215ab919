package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusConflict, "busy")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"busy"}`, rec.Body.String())
}

func TestRespondAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAttachment(rec, "chat_history.json", "application/json", []byte("[]"))

	assert.Equal(t, `attachment; filename="chat_history.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)
	require.NoError(t, SendSSEEvent(rec, rec, "typing", map[string]string{"content": "Tr"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: typing\ndata: {\"content\":\"Tr\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
