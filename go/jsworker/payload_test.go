package jsworker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoPayloadEncodesNullToken(t *testing.T) {
	text, err := NoPayload{}.Encode()
	require.NoError(t, err)
	require.Equal(t, "null", text)
}

func TestInnerRoundTripsPrimitives(t *testing.T) {
	cases := []interface{}{42, 3.5, "hello", true}
	for _, v := range cases {
		text, err := Inner{Value: v}.Encode()
		require.NoError(t, err)

		var decoded struct {
			Inner interface{} `json:"_inner_payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &decoded))
		require.EqualValues(t, v, decoded.Inner)
	}
}

func TestRawPassesThroughVerbatim(t *testing.T) {
	text, err := Raw(`{"a":1}`).Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, text)
}

func TestRawEmptyEncodesNullToken(t *testing.T) {
	text, err := Raw(nil).Encode()
	require.NoError(t, err)
	require.Equal(t, "null", text)
}

func TestOptionalPresentAndAbsent(t *testing.T) {
	present, err := Optional{Value: Inner{Value: 7}, Present: true}.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"_inner_payload":7}`, present)

	absent, err := Optional{Present: false}.Encode()
	require.NoError(t, err)
	require.Equal(t, "null", absent)
}

func TestPathEncodesAsString(t *testing.T) {
	text, err := Path("/tmp/task.js").Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"_inner_payload":"/tmp/task.js"}`, text)
}

func TestPayloadsBuildsHeterogeneousSequence(t *testing.T) {
	payloads, err := Payloads(10, "two", nil, Raw(`{"k":true}`))
	require.NoError(t, err)
	require.Len(t, payloads, 4)

	texts := make([]string, len(payloads))
	for i, p := range payloads {
		texts[i], err = p.Encode()
		require.NoError(t, err)
	}

	require.JSONEq(t, `{"_inner_payload":10}`, texts[0])
	require.JSONEq(t, `{"_inner_payload":"two"}`, texts[1])
	require.Equal(t, "null", texts[2])
	require.JSONEq(t, `{"k":true}`, texts[3])
}
