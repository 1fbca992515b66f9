package controlloop

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const onsetEvent = `{
	"closedLoopControlName": "ControlLoop-vCPE-48f0c2c3",
	"requestID": "664be3d2-6c12-4f4b-a3e7-c349acced200",
	"closedLoopEventClient": "DCAE_INSTANCE_ID.dcae-tca",
	"target_type": "VNF",
	"target": "generic-vnf.vnf-id",
	"closedLoopAlarmStart": 1463679805324,
	"closedLoopEventStatus": "ONSET",
	"AAI": {"generic-vnf.vnf-id": "vnf-01", "vserver.prov-status": "ACTIVE"}
}`

func TestDecodeOnset(t *testing.T) {
	var e VirtualControlLoopEvent
	require.NoError(t, json.Unmarshal([]byte(onsetEvent), &e))

	assert.Equal(t, EventStatusOnset, e.ClosedLoopEventStatus)
	assert.Equal(t, TargetTypeVNF, e.TargetType)
	assert.Equal(t, int64(1463679805324), e.ClosedLoopAlarmStart)
	assert.Equal(t, "vnf-01", e.AAI[GenericVnfVnfID])
	assert.NoError(t, e.Validate())
	assert.True(t, e.IsProvStatusActive())
}

func TestValidate(t *testing.T) {
	valid := func() VirtualControlLoopEvent {
		return VirtualControlLoopEvent{
			ClosedLoopControlName: "cl",
			RequestID:             uuid.New(),
			ClosedLoopEventStatus: EventStatusOnset,
			Target:                GenericVnfVnfID,
		}
	}

	tests := []struct {
		name   string
		mutate func(*VirtualControlLoopEvent)
		ok     bool
	}{
		{"valid", func(*VirtualControlLoopEvent) {}, true},
		{"no name", func(e *VirtualControlLoopEvent) { e.ClosedLoopControlName = "" }, false},
		{"no request id", func(e *VirtualControlLoopEvent) { e.RequestID = uuid.Nil }, false},
		{"bad status", func(e *VirtualControlLoopEvent) { e.ClosedLoopEventStatus = "BOGUS" }, false},
		{"onset without target", func(e *VirtualControlLoopEvent) { e.Target = "" }, false},
		{"abated without target", func(e *VirtualControlLoopEvent) {
			e.ClosedLoopEventStatus = EventStatusAbated
			e.Target = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(&e)
			if tt.ok {
				assert.NoError(t, e.Validate())
			} else {
				assert.Error(t, e.Validate())
			}
		})
	}
}

func TestProvStatus(t *testing.T) {
	e := VirtualControlLoopEvent{AAI: map[string]string{VserverProvStatus: "PROV"}}
	assert.False(t, e.IsProvStatusActive())

	e.AAI = map[string]string{"generic-vnf.prov-status": "active"}
	assert.True(t, e.IsProvStatusActive())

	e.AAI = nil
	assert.True(t, e.IsProvStatusActive())
}

func TestTargetEntityIDsCopies(t *testing.T) {
	e := VirtualControlLoopEvent{AAI: map[string]string{GenericVnfVnfID: "vnf-01"}}
	ids := e.TargetEntityIDs()
	ids[GenericVnfVnfID] = "changed"
	assert.Equal(t, "vnf-01", e.AAI[GenericVnfVnfID])
}

func TestOperationString(t *testing.T) {
	op := Operation{Actor: "SO", Operation: "VF Module Create", SubRequestID: "s", Outcome: "SUCCESS"}
	assert.Contains(t, op.String(), "actor=SO")
	assert.Contains(t, op.String(), "outcome=SUCCESS")
}
