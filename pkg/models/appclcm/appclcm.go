// Package appclcm holds the APPC LCM topic messages: the DMaaP wrapper,
// its request/response bodies and the response-code classification.
package appclcm

import (
	"encoding/json"
	"time"
)

// Message types carried in DmaapWrapper.Type.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
)

// DefaultAPIVersion is the LCM API version the actor speaks.
const DefaultAPIVersion = "2.00"

// DmaapWrapper is the envelope every LCM message is published in.
type DmaapWrapper struct {
	Version          string `json:"version,omitempty"`
	CambriaPartition string `json:"cambria.partition,omitempty"`
	RPCName          string `json:"rpc-name,omitempty"`
	CorrelationID    string `json:"correlation-id,omitempty"`
	Type             string `json:"type,omitempty"`
	Body             *Body  `json:"body,omitempty"`
}

// Body holds either the request input or the response output.
type Body struct {
	Input  *Input  `json:"input,omitempty"`
	Output *Output `json:"output,omitempty"`
}

// Input is the request payload.
type Input struct {
	CommonHeader      *CommonHeader     `json:"common-header,omitempty"`
	Action            string            `json:"action,omitempty"`
	ActionIdentifiers map[string]string `json:"action-identifiers,omitempty"`
	Payload           string            `json:"payload,omitempty"`
}

// Output is the response payload.
type Output struct {
	CommonHeader *CommonHeader   `json:"common-header,omitempty"`
	Status       *ResponseStatus `json:"status,omitempty"`
	Payload      string          `json:"payload,omitempty"`
}

// CommonHeader correlates requests and responses.
type CommonHeader struct {
	Timestamp    time.Time         `json:"timestamp"`
	APIVer       string            `json:"api-ver,omitempty"`
	OriginatorID string            `json:"originator-id,omitempty"`
	RequestID    string            `json:"request-id,omitempty"`
	SubRequestID string            `json:"sub-request-id,omitempty"`
	Flags        map[string]string `json:"flags,omitempty"`
}

// ResponseStatus is the numeric LCM status and its message.
type ResponseStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// ResponseValue classifies an LCM status code.
type ResponseValue string

const (
	Accepted       ResponseValue = "ACCEPTED"
	Error          ResponseValue = "ERROR"
	Reject         ResponseValue = "REJECT"
	Success        ResponseValue = "SUCCESS"
	Failure        ResponseValue = "FAILURE"
	PartialSuccess ResponseValue = "PARTIAL SUCCESS"
	PartialFailure ResponseValue = "PARTIAL FAILURE"
)

// ToResponseValue maps an LCM status code onto its class. ok is false for
// codes LCM does not define.
func ToResponseValue(code int) (value ResponseValue, ok bool) {
	switch {
	case code == 100:
		return Accepted, true
	case code >= 200 && code < 300:
		return Error, true
	case code >= 300 && code < 400:
		return Reject, true
	case code == 400:
		return Success, true
	case code == 450 || (code >= 401 && code <= 406):
		return Failure, true
	case code == 500:
		return PartialSuccess, true
	case code >= 501 && code <= 599:
		return PartialFailure, true
	}
	return "", false
}

// NewRequest builds a request wrapper for rpcName/action.
func NewRequest(rpcName, action, requestID, subRequestID string, ids map[string]string, payload map[string]interface{}) (*DmaapWrapper, error) {
	var encoded string
	if len(payload) > 0 {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		encoded = string(b)
	}

	return &DmaapWrapper{
		Version:       DefaultAPIVersion,
		RPCName:       rpcName,
		CorrelationID: requestID + "-" + subRequestID,
		Type:          TypeRequest,
		Body: &Body{
			Input: &Input{
				CommonHeader: &CommonHeader{
					Timestamp:    time.Now().UTC(),
					APIVer:       DefaultAPIVersion,
					OriginatorID: requestID,
					RequestID:    requestID,
					SubRequestID: subRequestID,
					Flags:        map[string]string{},
				},
				Action:            action,
				ActionIdentifiers: ids,
				Payload:           encoded,
			},
		},
	}, nil
}

// NewResponse builds the response the APPC side publishes for req.
func NewResponse(req *DmaapWrapper, code int, message string) *DmaapWrapper {
	header := &CommonHeader{Timestamp: time.Now().UTC(), APIVer: DefaultAPIVersion}
	if req.Body != nil && req.Body.Input != nil && req.Body.Input.CommonHeader != nil {
		in := req.Body.Input.CommonHeader
		header.OriginatorID = in.OriginatorID
		header.RequestID = in.RequestID
		header.SubRequestID = in.SubRequestID
	}

	return &DmaapWrapper{
		Version:       req.Version,
		RPCName:       req.RPCName,
		CorrelationID: req.CorrelationID,
		Type:          TypeResponse,
		Body: &Body{
			Output: &Output{
				CommonHeader: header,
				Status:       &ResponseStatus{Code: code, Message: message},
			},
		},
	}
}
