package orch

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Conf/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestEventFrameMergesPayload(t *testing.T) {
	f, err := eventFrame(domain.Event{Seq: 9, Type: domain.EventMemberJoined, Payload: `{"user_id":3}`})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(f, &m))
	require.Equal(t, "member.joined", m["type"])
	require.EqualValues(t, 9, m["seq"])
	require.EqualValues(t, 3, m["user_id"])
}

func TestEventFrameEmptyPayload(t *testing.T) {
	f, err := eventFrame(domain.Event{Seq: 1, Type: domain.EventStateChanged, Payload: "{}"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"state.changed","seq":1}`, string(f))
}

func TestErrorFrame(t *testing.T) {
	require.JSONEq(t, `{"type":"error","reason":"bad_json"}`, string(errorFrame(domain.ReasonBadJSON)))
}
