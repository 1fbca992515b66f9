package tosca

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed schema/service_template.json
var serviceTemplateSchema string

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(serviceTemplateSchema))
	})
	return compiledSchema, schemaErr
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid service template: " + strings.Join(e.Problems, "; ")
}

// Parse decodes a service template from JSON or YAML, validating it against
// the service template schema and the references between its entities.
func Parse(data []byte) (*ServiceTemplate, error) {
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("convert service template to JSON: %w", err)
	}

	if err := ValidateJSON(doc); err != nil {
		return nil, err
	}

	st := &ServiceTemplate{}
	if err := json.Unmarshal(doc, st); err != nil {
		return nil, fmt.Errorf("decode service template: %w", err)
	}

	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// ValidateJSON checks a JSON document against the service template schema.
func ValidateJSON(doc []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load service template schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate service template: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Problems = append(verr.Problems, desc.String())
	}
	return verr
}

// Validate checks the references inside the template. Every policy needs a
// type, and when the template carries policy types the referenced type must
// be among them.
func (st *ServiceTemplate) Validate() error {
	verr := &ValidationError{}

	if st.ToscaDefinitionsVersion == "" {
		verr.Problems = append(verr.Problems, "tosca_definitions_version is required")
	}

	seen := make(map[ConceptKey]bool)
	for _, p := range st.Policies() {
		if p.Type == "" {
			verr.Problems = append(verr.Problems, fmt.Sprintf("policy %s has no type", p.Name))
			continue
		}
		if seen[p.Key()] {
			verr.Problems = append(verr.Problems, fmt.Sprintf("policy %s is duplicated", p.Key()))
		}
		seen[p.Key()] = true

		if len(st.PolicyTypes) > 0 && st.PolicyType(p.TypeKey()) == nil {
			verr.Problems = append(verr.Problems, fmt.Sprintf("policy %s references unknown type %s", p.Key(), p.TypeKey()))
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// ToJSON encodes the template.
func (st *ServiceTemplate) ToJSON() ([]byte, error) {
	return json.Marshal(st)
}

// ToYAML encodes the template as YAML.
func (st *ServiceTemplate) ToYAML() ([]byte, error) {
	return yaml.Marshal(st)
}
