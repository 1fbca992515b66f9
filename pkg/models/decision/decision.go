// Package decision holds the XACML PDP decision API bodies.
package decision

import "strings"

// Decision statuses returned by the PDP.
const (
	StatusPermit        = "Permit"
	StatusDeny          = "Deny"
	StatusIndeterminate = "Indeterminate"
	StatusNotApplicable = "NotApplicable"
)

// Actions understood by the decision API.
const (
	ActionGuard     = "guard"
	ActionConfigure = "configure"
)

// Request is the decision request body.
type Request struct {
	OnapName      string                 `json:"ONAPName"`
	OnapComponent string                 `json:"ONAPComponent"`
	OnapInstance  string                 `json:"ONAPInstance"`
	RequestID     string                 `json:"requestId,omitempty"`
	Context       map[string]interface{} `json:"context,omitempty"`
	Action        string                 `json:"action"`
	CurrentDate   string                 `json:"currentDate,omitempty"`
	CurrentTime   string                 `json:"currentTime,omitempty"`
	TimeZone      string                 `json:"timeZone,omitempty"`
	Resource      map[string]interface{} `json:"resource"`
}

// Response is the decision response body.
type Response struct {
	Status      string                 `json:"status,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Advice      map[string]interface{} `json:"advice,omitempty"`
	Obligations map[string]interface{} `json:"obligations,omitempty"`
	Policies    map[string]interface{} `json:"policies,omitempty"`
}

// Permitted reports whether the PDP answered Permit (any case).
func (r *Response) Permitted() bool {
	return r != nil && strings.EqualFold(r.Status, StatusPermit)
}
