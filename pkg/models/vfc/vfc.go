// Package vfc holds the VF-C NS heal request and job responses.
package vfc

import "strings"

// Job statuses reported in responseDescriptor.status.
const (
	StatusFinished   = "finished"
	StatusError      = "error"
	StatusProcessing = "processing"
)

// HealActionRestartVM is the only heal action the actor issues.
const HealActionRestartVM = "restartvm"

// HealRequest is the body POSTed to ns/{nsInstanceId}/heal.
type HealRequest struct {
	VnfInstanceID    string                `json:"vnfInstanceId"`
	Cause            string                `json:"cause"`
	AdditionalParams *HealAdditionalParams `json:"additionalParams"`
}

// HealAdditionalParams selects the heal action and its VM.
type HealAdditionalParams struct {
	Action     string          `json:"action"`
	ActionInfo *HealActionInfo `json:"actionvminfo"`
}

// HealActionInfo identifies the VM to act on.
type HealActionInfo struct {
	VMID   string `json:"vmid"`
	VMName string `json:"vmname"`
}

// Response is returned by both the heal call and the job poll.
type Response struct {
	JobID              string              `json:"jobId,omitempty"`
	RequestID          string              `json:"requestId,omitempty"`
	ResponseDescriptor *ResponseDescriptor `json:"responseDescriptor,omitempty"`
}

// ResponseDescriptor is the job progress.
type ResponseDescriptor struct {
	Progress            string            `json:"progress,omitempty"`
	Status              string            `json:"status,omitempty"`
	StatusDescription   string            `json:"statusDescription,omitempty"`
	ErrorCode           string            `json:"errorCode,omitempty"`
	ResponseID          string            `json:"responseId,omitempty"`
	ResponseHistoryList []ResponseHistory `json:"responseHistoryList,omitempty"`
}

// ResponseHistory is one entry of the job history.
type ResponseHistory struct {
	Progress          string `json:"progress,omitempty"`
	Status            string `json:"status,omitempty"`
	StatusDescription string `json:"statusDescription,omitempty"`
	ErrorCode         string `json:"errorCode,omitempty"`
	ResponseID        string `json:"responseId,omitempty"`
}

// Status returns the lower-cased job status, or "".
func (r *Response) Status() string {
	if r == nil || r.ResponseDescriptor == nil {
		return ""
	}
	return strings.ToLower(r.ResponseDescriptor.Status)
}
