// Package sdnc holds the SDNC GENERIC-RESOURCE-API request and response
// bodies used by the Reroute and BandwidthOnDemand operations.
package sdnc

// Request actions sent in request-information.request-action.
const (
	ActionReoptimizeSOTNInstance = "ReoptimizeSOTNInstance"
	ActionSdwanBandwidthChange   = "SdwanBandwidthChange"
)

// ResponseCodeOK is the response-code SDNC returns on success.
const ResponseCodeOK = "200"

// HealRequest is the "input" element of the topology operation.
type HealRequest struct {
	RequestHeaderInfo *HealRequestHeaderInfo `json:"sdnc-request-header,omitempty"`
	RequestInfo       *HealRequestInfo       `json:"request-information,omitempty"`
	ServiceInfo       *HealServiceInfo       `json:"service-information,omitempty"`
	NetworkInfo       *HealNetworkInfo       `json:"network-information,omitempty"`
	VnfInfo           *HealVnfInfo           `json:"vnf-information,omitempty"`
	VfModuleInfo      *HealVfModuleInfo      `json:"vf-module-information,omitempty"`
	RequestParameters *HealRequestParameters `json:"vf-module-request-input,omitempty"`
}

// HealRequestHeaderInfo carries the request id and action.
type HealRequestHeaderInfo struct {
	SvcRequestID string `json:"svc-request-id,omitempty"`
	SvcAction    string `json:"svc-action,omitempty"`
}

// HealRequestInfo names the request action.
type HealRequestInfo struct {
	RequestAction string `json:"request-action,omitempty"`
}

// HealServiceInfo identifies the service instance.
type HealServiceInfo struct {
	ServiceInstanceID string `json:"service-instance-id,omitempty"`
}

// HealNetworkInfo identifies the network.
type HealNetworkInfo struct {
	NetworkID string `json:"network-id,omitempty"`
}

// HealVnfInfo identifies the VNF.
type HealVnfInfo struct {
	VnfID string `json:"vnf-id,omitempty"`
}

// HealVfModuleInfo identifies the VF module.
type HealVfModuleInfo struct {
	VfModuleID string `json:"vf-module-id,omitempty"`
}

// HealRequestParameters carries the VF module input parameters.
type HealRequestParameters struct {
	VfModuleInputParameters *HealVfModuleParameters `json:"vf-module-input-parameters,omitempty"`
}

// HealVfModuleParameters is a list of name/value parameters.
type HealVfModuleParameters struct {
	Params []HealVfModuleParameter `json:"param,omitempty"`
}

// HealVfModuleParameter is one name/value pair.
type HealVfModuleParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Response is SDNC's reply to a topology operation.
type Response struct {
	RequestID string          `json:"requestId,omitempty"`
	Output    *ResponseOutput `json:"output,omitempty"`
}

// ResponseOutput carries the response code and message.
type ResponseOutput struct {
	SvcRequestID      string `json:"svc-request-id,omitempty"`
	ResponseCode      string `json:"response-code,omitempty"`
	AckFinalIndicator string `json:"ack-final-indicator,omitempty"`
	ResponseMessage   string `json:"response-message,omitempty"`
}

// Succeeded reports whether the response code is 200.
func (r *Response) Succeeded() bool {
	return r != nil && r.Output != nil && r.Output.ResponseCode == ResponseCodeOK
}

// Message returns the response message, if any.
func (r *Response) Message() string {
	if r == nil || r.Output == nil {
		return ""
	}
	return r.Output.ResponseMessage
}

// Wrapper is the top-level body SDNC expects: {"input": {...}}.
type Wrapper struct {
	Input *HealRequest `json:"input"`
}
