package so

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseState(t *testing.T) {
	body := `{
		"request": {
			"requestId": "r-1",
			"requestStatus": {"requestState": "COMPLETE", "percentProgress": 100}
		}
	}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, RequestStateComplete, resp.State())
	assert.True(t, IsFinal(resp.State()))

	var empty *Response
	assert.Equal(t, "", empty.State())
	assert.Equal(t, "", (&Response{Request: &Request{}}).State())
}

func TestIsFinal(t *testing.T) {
	assert.True(t, IsFinal(RequestStateComplete))
	assert.True(t, IsFinal(RequestStateFailed))
	assert.False(t, IsFinal(RequestStateInProgress))
	assert.False(t, IsFinal(""))
}
