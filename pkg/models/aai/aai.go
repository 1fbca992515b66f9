// Package aai holds the subset of A&AI inventory objects the actors read,
// and the closed-loop custom query response built from them.
package aai

import (
	"encoding/json"
	"fmt"
)

// GenericVnf is an A&AI generic-vnf.
type GenericVnf struct {
	VnfID            string    `json:"vnf-id"`
	VnfName          string    `json:"vnf-name,omitempty"`
	VnfType          string    `json:"vnf-type,omitempty"`
	ProvStatus       string    `json:"prov-status,omitempty"`
	ModelInvariantID string    `json:"model-invariant-id,omitempty"`
	ModelVersionID   string    `json:"model-version-id,omitempty"`
	ModelCustomID    string    `json:"model-customization-id,omitempty"`
	VfModules        VfModules `json:"vf-modules,omitempty"`
}

// VfModules is the vf-modules container of a generic-vnf.
type VfModules struct {
	VfModule []VfModule `json:"vf-module,omitempty"`
}

// VfModule is an A&AI vf-module.
type VfModule struct {
	VfModuleID       string `json:"vf-module-id"`
	VfModuleName     string `json:"vf-module-name,omitempty"`
	IsBaseVfModule   bool   `json:"is-base-vf-module"`
	ModelInvariantID string `json:"model-invariant-id,omitempty"`
	ModelVersionID   string `json:"model-version-id,omitempty"`
	ModelCustomID    string `json:"model-customization-id,omitempty"`
}

// ServiceInstance is an A&AI service-instance.
type ServiceInstance struct {
	ServiceInstanceID   string `json:"service-instance-id"`
	ServiceInstanceName string `json:"service-instance-name,omitempty"`
	ModelInvariantID    string `json:"model-invariant-id,omitempty"`
	ModelVersionID      string `json:"model-version-id,omitempty"`
}

// Vserver is an A&AI vserver.
type Vserver struct {
	VserverID       string `json:"vserver-id"`
	VserverName     string `json:"vserver-name,omitempty"`
	VserverSelfLink string `json:"vserver-selflink,omitempty"`
	ProvStatus      string `json:"prov-status,omitempty"`
}

// Tenant is an A&AI tenant.
type Tenant struct {
	TenantID   string `json:"tenant-id"`
	TenantName string `json:"tenant-name,omitempty"`
}

// CloudRegion is an A&AI cloud-region.
type CloudRegion struct {
	CloudOwner    string `json:"cloud-owner"`
	CloudRegionID string `json:"cloud-region-id"`
}

// ModelVer is an A&AI model-ver.
type ModelVer struct {
	ModelVersionID string `json:"model-version-id"`
	ModelName      string `json:"model-name,omitempty"`
	ModelVersion   string `json:"model-version,omitempty"`
}

// Pnf is an A&AI pnf.
type Pnf struct {
	PnfName     string `json:"pnf-name"`
	PnfID       string `json:"pnf-id,omitempty"`
	EquipType   string `json:"equip-type,omitempty"`
	EquipVendor string `json:"equip-vendor,omitempty"`
	EquipModel  string `json:"equip-model,omitempty"`
	InMaint     bool   `json:"in-maint"`
	IPV4OAM     string `json:"ipaddress-v4-oam,omitempty"`
}

// CqResponse is the parsed result of the closed-loop custom query. A&AI
// returns a list of single-key objects, each naming its node type.
type CqResponse struct {
	Vservers         []Vserver
	GenericVnfs      []GenericVnf
	ServiceInstances []ServiceInstance
	Tenants          []Tenant
	CloudRegions     []CloudRegion
	VfModules        []VfModule
	ModelVers        []ModelVer
}

type cqResults struct {
	Results []map[string]json.RawMessage `json:"results"`
}

// ParseCqResponse decodes a custom query response body.
func ParseCqResponse(body []byte) (*CqResponse, error) {
	var raw cqResults
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode custom query response: %w", err)
	}

	cq := &CqResponse{}
	for _, result := range raw.Results {
		for kind, data := range result {
			var err error
			switch kind {
			case "vserver":
				err = appendDecoded(data, &cq.Vservers)
			case "generic-vnf":
				err = appendDecoded(data, &cq.GenericVnfs)
			case "service-instance":
				err = appendDecoded(data, &cq.ServiceInstances)
			case "tenant":
				err = appendDecoded(data, &cq.Tenants)
			case "cloud-region":
				err = appendDecoded(data, &cq.CloudRegions)
			case "vf-module":
				err = appendDecoded(data, &cq.VfModules)
			case "model-ver":
				err = appendDecoded(data, &cq.ModelVers)
			}
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", kind, err)
			}
		}
	}
	return cq, nil
}

func appendDecoded[T any](data json.RawMessage, into *[]T) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*into = append(*into, v)
	return nil
}

// GenericVnfByModelInvariantID returns the VNF with the given model
// invariant id.
func (cq *CqResponse) GenericVnfByModelInvariantID(id string) *GenericVnf {
	for i := range cq.GenericVnfs {
		if cq.GenericVnfs[i].ModelInvariantID == id {
			return &cq.GenericVnfs[i]
		}
	}
	return nil
}

// GenericVnfByVfModuleModelInvariantID returns the VNF owning a VF module
// whose model invariant id matches.
func (cq *CqResponse) GenericVnfByVfModuleModelInvariantID(id string) *GenericVnf {
	for i := range cq.GenericVnfs {
		for _, m := range cq.GenericVnfs[i].VfModules.VfModule {
			if m.ModelInvariantID == id {
				return &cq.GenericVnfs[i]
			}
		}
	}
	return nil
}

// ServiceInstance returns the first service instance.
func (cq *CqResponse) ServiceInstance() *ServiceInstance {
	if len(cq.ServiceInstances) == 0 {
		return nil
	}
	return &cq.ServiceInstances[0]
}

// DefaultTenant returns the first tenant.
func (cq *CqResponse) DefaultTenant() *Tenant {
	if len(cq.Tenants) == 0 {
		return nil
	}
	return &cq.Tenants[0]
}

// DefaultCloudRegion returns the first cloud region.
func (cq *CqResponse) DefaultCloudRegion() *CloudRegion {
	if len(cq.CloudRegions) == 0 {
		return nil
	}
	return &cq.CloudRegions[0]
}

// ModelVerByVersionID returns the model-ver with the given id.
func (cq *CqResponse) ModelVerByVersionID(id string) *ModelVer {
	for i := range cq.ModelVers {
		if cq.ModelVers[i].ModelVersionID == id {
			return &cq.ModelVers[i]
		}
	}
	return nil
}

// VfModuleCount counts VF modules with the given customization id,
// invariant id and version id across all VNFs.
func (cq *CqResponse) VfModuleCount(customizationID, invariantID, versionID string) int {
	count := 0
	for _, vnf := range cq.GenericVnfs {
		for _, m := range vnf.VfModules.VfModule {
			if m.ModelCustomID == customizationID && m.ModelInvariantID == invariantID && m.ModelVersionID == versionID {
				count++
			}
		}
	}
	return count
}

// NodesQueryResponse is the body of a search/nodes-query lookup.
type NodesQueryResponse struct {
	ResultData []ResultData `json:"result-data"`
}

// ResultData is one hit of a nodes query.
type ResultData struct {
	ResourceType string `json:"resource-type"`
	ResourceLink string `json:"resource-link"`
}

// ResourceLink returns the link of the first hit, or "".
func (r *NodesQueryResponse) ResourceLink() string {
	if r == nil || len(r.ResultData) == 0 {
		return ""
	}
	return r.ResultData[0].ResourceLink
}

// CustomQueryRequest is the body PUT to the custom query endpoint.
type CustomQueryRequest struct {
	Start string `json:"start"`
	Query string `json:"query"`
}

// ClosedLoopQuery is the stored query returning a vserver's closed-loop
// neighbourhood.
const ClosedLoopQuery = "query/closed-loop"
