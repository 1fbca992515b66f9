package tosca

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseYAMLOperationalPolicy(t *testing.T) {
	st, err := Parse(readFixture(t, "vcpe_operational.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefinitionsVersion, st.ToscaDefinitionsVersion)
	require.Len(t, st.Policies(), 1)

	p := st.Policies()[0]
	assert.Equal(t, "operational.restart", p.Name)
	assert.Equal(t, ConceptKey{Name: "operational.restart", Version: "1.0.0"}, p.Key())
	assert.Equal(t, "onap.policies.controlloop.operational.common.Drools", p.TypeKey().Name)
	assert.Equal(t, float64(3600), p.Properties["timeout"])
	assert.Equal(t, "operational.restart", p.Metadata["policy-id"])
}

func TestParseJSONWithTypes(t *testing.T) {
	st, err := Parse(readFixture(t, "monitoring_types.json"))
	require.NoError(t, err)

	require.Len(t, st.PolicyTypes, 2)
	tca := st.PolicyTypes["onap.policies.monitoring.tcagen2"]
	require.NotNil(t, tca)
	assert.Equal(t, "onap.policies.monitoring.tcagen2", tca.Name)
	assert.Equal(t, "onap.policies.Monitoring", tca.DerivedFrom)
	require.Contains(t, tca.Properties, "tca.policy")
	assert.Equal(t, "tca.policy", tca.Properties["tca.policy"].Name)
	assert.Equal(t, "onap.datatypes.monitoring.thresholds", tca.Properties["tca.policy"].EntrySchema.Type)

	dt := st.DataTypes["onap.datatypes.monitoring.thresholds"]
	require.NotNil(t, dt)
	assert.Equal(t, "severity", dt.Properties["severity"].Name)
	assert.True(t, dt.Properties["severity"].Required)
	assert.Equal(t, []string{"CRITICAL", "MAJOR", "MINOR"}, dt.Properties["severity"].Constraints[0].ValidValues)

	assert.Equal(t, []ConceptKey{
		{Name: "onap.policies.Monitoring", Version: "1.0.0"},
		{Name: "onap.policies.monitoring.tcagen2", Version: "1.0.0"},
	}, st.PolicyTypeKeys())

	p := st.Policy(ConceptKey{Name: "onap.vfirewall.tca", Version: "1.0.0"})
	require.NotNil(t, p)
	assert.NotNil(t, st.PolicyType(p.TypeKey()))
}

func TestPolicyListRoundTrip(t *testing.T) {
	st := &ServiceTemplate{ToscaDefinitionsVersion: DefinitionsVersion}
	st.AddPolicy(&Policy{
		Entity:      Entity{Name: "guard.minmax", Version: "1.0.0"},
		Type:        "onap.policies.controlloop.guard.common.MinMax",
		TypeVersion: "1.0.0",
		Properties:  map[string]interface{}{"min": float64(1), "max": float64(5)},
	})

	data, err := st.ToJSON()
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	policies := generic["topology_template"].(map[string]interface{})["policies"].([]interface{})
	require.Len(t, policies, 1)
	assert.Contains(t, policies[0], "guard.minmax")

	decoded, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, decoded.Policies(), 1)
	assert.Equal(t, st.Policies()[0].Properties, decoded.Policies()[0].Properties)

	yamlData, err := st.ToYAML()
	require.NoError(t, err)
	fromYAML, err := Parse(yamlData)
	require.NoError(t, err)
	assert.Equal(t, "guard.minmax", fromYAML.Policies()[0].Name)
}

func TestVersionDefaults(t *testing.T) {
	p := &Policy{Entity: Entity{Name: "p"}, Type: "t"}
	assert.Equal(t, "p:1.0.0", p.Key().String())
	assert.Equal(t, "t:1.0.0", p.TypeKey().String())
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing definitions version",
			doc:  `{"topology_template": {"policies": []}}`,
		},
		{
			name: "unknown definitions version",
			doc:  `{"tosca_definitions_version": "tosca_simple_yaml_9"}`,
		},
		{
			name: "policy entry with two keys",
			doc: `{"tosca_definitions_version": "tosca_simple_yaml_1_1_0", "topology_template": {"policies": [
				{"a": {"type": "t", "type_version": "1.0.0", "version": "1.0.0"},
				 "b": {"type": "t", "type_version": "1.0.0", "version": "1.0.0"}}]}}`,
		},
		{
			name: "policy missing version",
			doc: `{"tosca_definitions_version": "tosca_simple_yaml_1_1_0", "topology_template": {"policies": [
				{"a": {"type": "t", "type_version": "1.0.0"}}]}}`,
		},
		{
			name: "policy with unknown type",
			doc: `{"tosca_definitions_version": "tosca_simple_yaml_1_1_0",
				"policy_types": {"known": {"version": "1.0.0"}},
				"topology_template": {"policies": [{"a": {"type": "unknown", "type_version": "1.0.0", "version": "1.0.0"}}]}}`,
		},
		{
			name: "duplicate policy",
			doc: `{"tosca_definitions_version": "tosca_simple_yaml_1_1_0", "topology_template": {"policies": [
				{"a": {"type": "t", "type_version": "1.0.0", "version": "1.0.0"}},
				{"a": {"type": "t", "type_version": "1.0.0", "version": "1.0.0"}}]}}`,
		},
		{
			name: "not a document",
			doc:  `:::`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestValidationErrorListsProblems(t *testing.T) {
	err := ValidateJSON([]byte(`{"policy_types": {"x": {"version": "abc"}}}`))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Problems), 2)
	assert.Contains(t, verr.Error(), "invalid service template")
}

func TestTopologyTemplateNameMismatch(t *testing.T) {
	var tt TopologyTemplate
	err := json.Unmarshal([]byte(`{"policies": [{"a": {"name": "b", "type": "t"}}]}`), &tt)
	assert.Error(t, err)
}
