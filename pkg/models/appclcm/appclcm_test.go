package appclcm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToResponseValue(t *testing.T) {
	tests := []struct {
		code   int
		want   ResponseValue
		wantOK bool
	}{
		{100, Accepted, true},
		{200, Error, true},
		{299, Error, true},
		{300, Reject, true},
		{313, Reject, true},
		{400, Success, true},
		{401, Failure, true},
		{406, Failure, true},
		{450, Failure, true},
		{500, PartialSuccess, true},
		{501, PartialFailure, true},
		{599, PartialFailure, true},
		{0, "", false},
		{407, "", false},
		{600, "", false},
	}

	for _, tt := range tests {
		got, ok := ToResponseValue(tt.code)
		assert.Equal(t, tt.wantOK, ok, "code %d", tt.code)
		assert.Equal(t, tt.want, got, "code %d", tt.code)
	}
}

func TestNewRequestAndResponse(t *testing.T) {
	req, err := NewRequest("restart", "Restart", "req-1", "sub-1",
		map[string]string{"vnf-id": "vnf-01"}, map[string]interface{}{"configurationParameters": "x"})
	require.NoError(t, err)

	assert.Equal(t, "req-1-sub-1", req.CorrelationID)
	assert.Equal(t, TypeRequest, req.Type)
	assert.Equal(t, "sub-1", req.Body.Input.CommonHeader.SubRequestID)
	assert.JSONEq(t, `{"configurationParameters":"x"}`, req.Body.Input.Payload)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rpc-name":"restart"`)
	assert.Contains(t, string(data), `"action-identifiers":{"vnf-id":"vnf-01"}`)

	resp := NewResponse(req, 400, "Restart Successful")
	assert.Equal(t, TypeResponse, resp.Type)
	assert.Equal(t, req.CorrelationID, resp.CorrelationID)
	assert.Equal(t, "sub-1", resp.Body.Output.CommonHeader.SubRequestID)
	assert.Equal(t, 400, resp.Body.Output.Status.Code)
}

func TestNewRequestWithoutPayload(t *testing.T) {
	req, err := NewRequest("migrate", "Migrate", "r", "s", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, req.Body.Input.Payload)
}
