// Package so holds the Service Orchestrator (SO) request and response
// bodies used by the VF module operations.
package so

// Request states reported by SO in requestStatus.requestState.
const (
	RequestStateComplete   = "COMPLETE"
	RequestStateFailed     = "FAILED"
	RequestStateInProgress = "IN_PROGRESS"
	RequestStatePending    = "PENDING"
)

// Model types used in ModelInfo.ModelType.
const (
	ModelTypeService  = "service"
	ModelTypeVnf      = "vnf"
	ModelTypeVfModule = "vfModule"
)

// Request is the body POSTed to SO and the "request" element of its
// orchestration-request responses.
type Request struct {
	RequestID      string          `json:"requestId,omitempty"`
	StartTime      string          `json:"startTime,omitempty"`
	FinishTime     string          `json:"finishTime,omitempty"`
	RequestScope   string          `json:"requestScope,omitempty"`
	RequestType    string          `json:"requestType,omitempty"`
	RequestDetails *RequestDetails `json:"requestDetails,omitempty"`
	RequestStatus  *RequestStatus  `json:"requestStatus,omitempty"`
	OperationType  string          `json:"operationType,omitempty"`
}

// RequestDetails describes what SO is asked to instantiate or delete.
type RequestDetails struct {
	ModelInfo               *ModelInfo                   `json:"modelInfo,omitempty"`
	CloudConfiguration      *CloudConfiguration          `json:"cloudConfiguration,omitempty"`
	RequestInfo             *RequestInfo                 `json:"requestInfo,omitempty"`
	SubscriberInfo          *SubscriberInfo              `json:"subscriberInfo,omitempty"`
	RelatedInstanceList     []RelatedInstanceListElement `json:"relatedInstanceList,omitempty"`
	RequestParameters       *RequestParameters           `json:"requestParameters,omitempty"`
	ConfigurationParameters []map[string]string          `json:"configurationParameters,omitempty"`
}

// ModelInfo identifies an SDC model.
type ModelInfo struct {
	ModelType              string `json:"modelType,omitempty"`
	ModelInvariantID       string `json:"modelInvariantId,omitempty"`
	ModelVersionID         string `json:"modelVersionId,omitempty"`
	ModelName              string `json:"modelName,omitempty"`
	ModelVersion           string `json:"modelVersion,omitempty"`
	ModelCustomizationName string `json:"modelCustomizationName,omitempty"`
	ModelCustomizationID   string `json:"modelCustomizationId,omitempty"`
	ModelInstanceName      string `json:"modelInstanceName,omitempty"`
}

// CloudConfiguration names the tenant and region to deploy into.
type CloudConfiguration struct {
	TenantID         string `json:"tenantId,omitempty"`
	LcpCloudRegionID string `json:"lcpCloudRegionId,omitempty"`
	CloudOwner       string `json:"cloudOwner,omitempty"`
}

// RequestInfo carries requestor metadata.
type RequestInfo struct {
	InstanceName         string `json:"instanceName,omitempty"`
	Source               string `json:"source,omitempty"`
	ProductFamilyID      string `json:"productFamilyId,omitempty"`
	SuppressRollback     bool   `json:"suppressRollback"`
	RequestorID          string `json:"requestorId,omitempty"`
	BillingAccountNumber string `json:"billingAccountNumber,omitempty"`
	CallbackURL          string `json:"callbackUrl,omitempty"`
	Correlator           string `json:"correlator,omitempty"`
	OrderNumber          string `json:"orderNumber,omitempty"`
	OrderVersion         int    `json:"orderVersion,omitempty"`
}

// SubscriberInfo identifies the subscriber owning the service.
type SubscriberInfo struct {
	GlobalSubscriberID     string `json:"globalSubscriberId,omitempty"`
	SubscriberCommonSiteID string `json:"subscriberCommonSiteId,omitempty"`
	SubscriberName         string `json:"subscriberName,omitempty"`
}

// RequestParameters are the user parameters of the request.
type RequestParameters struct {
	SubscriptionServiceType string                   `json:"subscriptionServiceType,omitempty"`
	UserParams              []map[string]interface{} `json:"userParams,omitempty"`
	ALaCarte                bool                     `json:"aLaCarte"`
	UsePreload              bool                     `json:"usePreload"`
}

// RelatedInstanceListElement wraps one related instance.
type RelatedInstanceListElement struct {
	RelatedInstance RelatedInstance `json:"relatedInstance"`
}

// RelatedInstance points at the parent service or VNF of a VF module.
type RelatedInstance struct {
	InstanceName string     `json:"instanceName,omitempty"`
	InstanceID   string     `json:"instanceId,omitempty"`
	ModelInfo    *ModelInfo `json:"modelInfo,omitempty"`
}

// RequestStatus is the progress of an orchestration request.
type RequestStatus struct {
	PercentProgress int    `json:"percentProgress,omitempty"`
	RequestState    string `json:"requestState,omitempty"`
	StatusMessage   string `json:"statusMessage,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
	WasRolledBack   bool   `json:"wasRolledBack,omitempty"`
}

// RequestReferences is returned when SO accepts a request.
type RequestReferences struct {
	InstanceID string `json:"instanceId,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// Response is the body of both the accept response and the
// orchestration-request poll response.
type Response struct {
	HTTPResponseCode  int                `json:"httpResponseCode,omitempty"`
	Request           *Request           `json:"request,omitempty"`
	RequestReferences *RequestReferences `json:"requestReferences,omitempty"`
}

// State returns the request state, or "" when the response has none.
func (r *Response) State() string {
	if r == nil || r.Request == nil || r.Request.RequestStatus == nil {
		return ""
	}
	return r.Request.RequestStatus.RequestState
}

// IsFinal reports whether the state ends polling.
func IsFinal(state string) bool {
	return state == RequestStateComplete || state == RequestStateFailed
}
