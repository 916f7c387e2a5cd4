package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_JSONRoundTrip(t *testing.T) {
	req := &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypeTurn,
		SessionID:  uuid.New(),
		Message:    "open the door",
		EnqueuedAt: time.Now().UTC().Truncate(time.Second),
	}

	data, err := req.ToJSON()
	require.NoError(t, err)

	out, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, out.RequestID)
	assert.Equal(t, req.SessionID, out.SessionID)
	assert.Equal(t, req.Message, out.Message)
	assert.Equal(t, RequestTypeTurn, out.Type)
}

func TestRequest_StoryBeat(t *testing.T) {
	req := &Request{
		RequestID:  "beat-1",
		Type:       RequestTypeStoryBeat,
		SessionID:  uuid.New(),
		BeatPrompt: "A horn sounds in the distance.",
		EnqueuedAt: time.Now(),
	}

	data, err := req.ToJSON()
	require.NoError(t, err)

	out, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, RequestTypeStoryBeat, out.Type)
	assert.Equal(t, "A horn sounds in the distance.", out.BeatPrompt)
	assert.Empty(t, out.Message)
}

func TestFromJSON_InvalidSessionID(t *testing.T) {
	_, err := FromJSON([]byte(`{"request_id":"r","type":"turn","session_id":"not-a-uuid"}`))
	assert.Error(t, err)
}
