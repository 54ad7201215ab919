package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendKeepsOrder(t *testing.T) {
	h := NewHistory(AITurn("hi"))
	h.Append(UserTurn("fix this bug"))
	h.Append(AITurn("Try X"))

	assert.Equal(t, []Turn{
		{Role: RoleAI, Content: "hi"},
		{Role: RoleUser, Content: "fix this bug"},
		{Role: RoleAI, Content: "Try X"},
	}, h.Turns())
	assert.Equal(t, 3, h.Len())
}

func TestHistoryTurnsIsACopy(t *testing.T) {
	h := NewHistory(AITurn("hi"))
	turns := h.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hi", h.Turns()[0].Content)
}

func TestHistoryResetKeepsOnlySeed(t *testing.T) {
	h := NewHistory(AITurn("hi"), UserTurn("a"), AITurn("b"))
	before := h.Turns()

	h.Reset(AITurn("greeting"))

	assert.Equal(t, []Turn{AITurn("greeting")}, h.Turns())
	assert.Len(t, before, 3, "earlier snapshots must not be affected by reset")
}

func TestSessionCloneDetachesHistory(t *testing.T) {
	s := Session{ID: "s1", History: NewHistory(AITurn("hi"))}
	cloned := s.Clone()
	s.History.Append(UserTurn("later"))

	assert.Equal(t, 1, cloned.History.Len())
	assert.Equal(t, 2, s.History.Len())
}

func TestExportRoundTrip(t *testing.T) {
	turns := []Turn{
		AITurn("Hi! I'm DeepSeek. How can I help you code today? 💻"),
		UserTurn("why does {x} fail?\n\tdetails"),
		AITurn("```go\nfmt.Println(\"x\")\n```"),
	}

	data, err := EncodeTurns(turns)
	require.NoError(t, err)

	decoded, err := DecodeTurns(data)
	require.NoError(t, err)
	assert.Equal(t, turns, decoded)
}

func TestEncodeTurnsShape(t *testing.T) {
	data, err := EncodeTurns([]Turn{UserTurn("hello")})
	require.NoError(t, err)

	assert.Equal(t, "[\n    {\n        \"role\": \"user\",\n        \"content\": \"hello\"\n    }\n]", string(data))

	empty, err := EncodeTurns(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecodeTurnsRejectsUnknownRole(t *testing.T) {
	_, err := DecodeTurns([]byte(`[{"role":"system","content":"x"}]`))
	require.ErrorIs(t, err, ErrInvalidHistory)
}

func TestDecodeTurnsRejectsMalformedDocument(t *testing.T) {
	_, err := DecodeTurns([]byte(`{"role":"user"}`))
	require.ErrorIs(t, err, ErrInvalidHistory)

	_, err = DecodeTurns([]byte(`[{"role":"user","content":"x","extra":1}]`))
	require.Error(t, err)
}

func TestHistoryJSONIsPlainArray(t *testing.T) {
	h := NewHistory(AITurn("hi"), UserTurn("q"))
	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"ai","content":"hi"},{"role":"user","content":"q"}]`, string(data))

	var decoded History
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, h.Turns(), decoded.Turns())
}
