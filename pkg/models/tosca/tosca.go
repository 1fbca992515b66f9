// Package tosca models the TOSCA service templates used to carry ONAP
// policy types, data types and policies, with the JSON adapters needed to
// read and write their keyed-map and list-of-single-entry-map forms.
package tosca

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefinitionsVersion is the TOSCA profile ONAP policies are written in.
const DefinitionsVersion = "tosca_simple_yaml_1_1_0"

// DefaultVersion is assumed for entities that carry no version.
const DefaultVersion = "1.0.0"

// ConceptKey identifies an entity by name and version.
type ConceptKey struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// String renders the key as name:version.
func (k ConceptKey) String() string {
	return k.Name + ":" + k.Version
}

// Entity is the set of fields shared by every TOSCA entity.
type Entity struct {
	Name        string                 `json:"name,omitempty"`
	Version     string                 `json:"version,omitempty"`
	DerivedFrom string                 `json:"derived_from,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// Key returns the entity key, defaulting the version.
func (e *Entity) Key() ConceptKey {
	version := e.Version
	if version == "" {
		version = DefaultVersion
	}
	return ConceptKey{Name: e.Name, Version: version}
}

// Constraint is a property or schema constraint.
type Constraint struct {
	ValidValues []string `json:"valid_values,omitempty"`
	Equal       string   `json:"equal,omitempty"`
	GreaterThan string   `json:"greater_than,omitempty"`
	GreaterOrEq string   `json:"greater_or_equal,omitempty"`
	LessThan    string   `json:"less_than,omitempty"`
	LessOrEqual string   `json:"less_or_equal,omitempty"`
	InRange     []string `json:"in_range,omitempty"`
}

// Schema is the key or entry schema of a map/list property.
type Schema struct {
	Type        string            `json:"type"`
	TypeVersion string            `json:"type_version,omitempty"`
	Description string            `json:"description,omitempty"`
	Constraints []Constraint      `json:"constraints,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Property is a property definition. Its name is the key it is stored
// under.
type Property struct {
	Name         string            `json:"-"`
	Type         string            `json:"type"`
	TypeVersion  string            `json:"type_version,omitempty"`
	Description  string            `json:"description,omitempty"`
	DefaultValue interface{}       `json:"default,omitempty"`
	Required     bool              `json:"required,omitempty"`
	Status       string            `json:"status,omitempty"`
	Constraints  []Constraint      `json:"constraints,omitempty"`
	KeySchema    *Schema           `json:"key_schema,omitempty"`
	EntrySchema  *Schema           `json:"entry_schema,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// DataType is a TOSCA data type.
type DataType struct {
	Entity
	Constraints []Constraint         `json:"constraints,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
}

// PolicyType is a TOSCA policy type.
type PolicyType struct {
	Entity
	Properties map[string]*Property `json:"properties,omitempty"`
	Targets    []ConceptKey         `json:"targets,omitempty"`
	Triggers   []interface{}        `json:"triggers,omitempty"`
}

// Policy is a TOSCA policy instance.
type Policy struct {
	Entity
	Type        string                 `json:"type"`
	TypeVersion string                 `json:"type_version,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// TypeKey returns the key of the policy's type.
func (p *Policy) TypeKey() ConceptKey {
	version := p.TypeVersion
	if version == "" {
		version = DefaultVersion
	}
	return ConceptKey{Name: p.Type, Version: version}
}

// TopologyTemplate holds the policies of a service template.
type TopologyTemplate struct {
	Description   string                 `json:"description,omitempty"`
	Inputs        map[string]*Property   `json:"inputs,omitempty"`
	NodeTemplates map[string]interface{} `json:"node_templates,omitempty"`
	Policies      []*Policy              `json:"-"`
}

type topologyTemplateJSON struct {
	Description   string                 `json:"description,omitempty"`
	Inputs        map[string]*Property   `json:"inputs,omitempty"`
	NodeTemplates map[string]interface{} `json:"node_templates,omitempty"`
	Policies      []map[string]*Policy   `json:"policies,omitempty"`
}

// MarshalJSON writes policies as a list of single-entry maps keyed by
// policy name.
func (t TopologyTemplate) MarshalJSON() ([]byte, error) {
	out := topologyTemplateJSON{
		Description:   t.Description,
		Inputs:        t.Inputs,
		NodeTemplates: t.NodeTemplates,
	}
	for _, p := range t.Policies {
		if p == nil {
			continue
		}
		out.Policies = append(out.Policies, map[string]*Policy{p.Name: p})
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the list-of-single-entry-maps policy form, filling in
// each policy name from its key.
func (t *TopologyTemplate) UnmarshalJSON(data []byte) error {
	var in topologyTemplateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	t.Description = in.Description
	t.Inputs = in.Inputs
	t.NodeTemplates = in.NodeTemplates
	t.Policies = nil

	for i, entry := range in.Policies {
		if len(entry) != 1 {
			return fmt.Errorf("policy list entry %d must have exactly one key, has %d", i, len(entry))
		}
		for name, p := range entry {
			if p == nil {
				return fmt.Errorf("policy %q has no body", name)
			}
			if p.Name == "" {
				p.Name = name
			} else if p.Name != name {
				return fmt.Errorf("policy key %q does not match policy name %q", name, p.Name)
			}
			t.Policies = append(t.Policies, p)
		}
	}
	return nil
}

// ServiceTemplate is the document exchanged with the policy API and PAP.
type ServiceTemplate struct {
	Entity
	ToscaDefinitionsVersion string                 `json:"tosca_definitions_version"`
	DataTypes               map[string]*DataType   `json:"data_types,omitempty"`
	PolicyTypes             map[string]*PolicyType `json:"policy_types,omitempty"`
	TopologyTemplate        *TopologyTemplate      `json:"topology_template,omitempty"`
}

// UnmarshalJSON decodes the template and fills in the names of every
// map-keyed entity.
func (st *ServiceTemplate) UnmarshalJSON(data []byte) error {
	type plain ServiceTemplate
	if err := json.Unmarshal(data, (*plain)(st)); err != nil {
		return err
	}

	for name, dt := range st.DataTypes {
		if dt == nil {
			return fmt.Errorf("data type %q has no body", name)
		}
		if dt.Name == "" {
			dt.Name = name
		}
		fillPropertyNames(dt.Properties)
	}
	for name, pt := range st.PolicyTypes {
		if pt == nil {
			return fmt.Errorf("policy type %q has no body", name)
		}
		if pt.Name == "" {
			pt.Name = name
		}
		fillPropertyNames(pt.Properties)
	}
	if st.TopologyTemplate != nil {
		fillPropertyNames(st.TopologyTemplate.Inputs)
	}
	return nil
}

func fillPropertyNames(props map[string]*Property) {
	for name, p := range props {
		if p != nil {
			p.Name = name
		}
	}
}

// Policies returns the template's policies, or nil.
func (st *ServiceTemplate) Policies() []*Policy {
	if st.TopologyTemplate == nil {
		return nil
	}
	return st.TopologyTemplate.Policies
}

// Policy returns the policy with the given key.
func (st *ServiceTemplate) Policy(key ConceptKey) *Policy {
	for _, p := range st.Policies() {
		if p.Key() == key {
			return p
		}
	}
	return nil
}

// PolicyType returns the policy type with the given key.
func (st *ServiceTemplate) PolicyType(key ConceptKey) *PolicyType {
	for _, pt := range st.PolicyTypes {
		if pt.Key() == key {
			return pt
		}
	}
	return nil
}

// PolicyTypeKeys returns the sorted keys of the template's policy types.
func (st *ServiceTemplate) PolicyTypeKeys() []ConceptKey {
	keys := make([]ConceptKey, 0, len(st.PolicyTypes))
	for _, pt := range st.PolicyTypes {
		keys = append(keys, pt.Key())
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// AddPolicy appends p to the topology template, creating it if needed.
func (st *ServiceTemplate) AddPolicy(p *Policy) {
	if st.TopologyTemplate == nil {
		st.TopologyTemplate = &TopologyTemplate{}
	}
	st.TopologyTemplate.Policies = append(st.TopologyTemplate.Policies, p)
}
