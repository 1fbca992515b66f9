package simulators_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/thc1006/onap-policy-actors/internal/simulators"
	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/models/aai"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

func params(actorName, operation string, ids map[string]string) actor.Params {
	return actor.Params{
		Actor:           actorName,
		Operation:       operation,
		RequestID:       uuid.New(),
		ClosedLoopName:  "ControlLoop-vLB",
		TargetEntity:    "vnf-01",
		TargetEntityIDs: ids,
	}
}

var _ = Describe("Actors against the simulators", func() {
	ctx := context.Background()

	Describe("A&AI", func() {
		It("reads a PNF", func() {
			outcome := service.Query(ctx, params("AAI", "Pnf", map[string]string{controlloop.PnfPnfName: "gnb-7"}))
			Expect(outcome.Result).To(Equal(actor.Success))
			Expect(outcome.Response.(*aai.Pnf).PnfName).To(Equal("gnb-7"))
		})

		It("fails for an unknown PNF", func() {
			outcome := service.Query(ctx, params("AAI", "Pnf", map[string]string{controlloop.PnfPnfName: simulators.AaiErrorName}))
			Expect(outcome.Result).To(Equal(actor.Failure))
		})

		It("runs the custom query from the vserver name", func() {
			outcome := service.Execute(ctx, params("AAI", "CustomQuery", map[string]string{
				controlloop.VserverVserverName: "vlb-vm-01",
			}))
			Expect(outcome.Result).To(Equal(actor.Success))
			cq := outcome.Response.(*aai.CqResponse)
			Expect(cq.ServiceInstance().ServiceInstanceID).To(Equal("c14e61b5-1ee6-4925-b4a9-b9c8dbfe3f34"))
		})
	})

	Describe("SDNC", func() {
		It("reroutes", func() {
			outcome := service.Execute(ctx, params("SDNC", "Reroute", map[string]string{
				controlloop.ServiceInstanceID:       "svc-01",
				controlloop.NetworkInformationNetID: "net-01",
			}))
			Expect(outcome.Result).To(Equal(actor.Success))
			Expect(outcome.Message).To(Equal("Success"))
		})

		It("fails when SDNC answers 404", func() {
			outcome := service.Execute(ctx, params("SDNC", "Reroute", map[string]string{
				controlloop.ServiceInstanceID:       simulators.SdncErrorServiceInstance,
				controlloop.NetworkInformationNetID: "net-01",
			}))
			Expect(outcome.Result).To(Equal(actor.Failure))
		})

		It("is stopped by a guard deny", func() {
			p := params("SDNC", "Reroute", map[string]string{
				controlloop.ServiceInstanceID:       "svc-01",
				controlloop.NetworkInformationNetID: "net-01",
			})
			p.ClosedLoopName = simulators.DenyGuardClosedLoop
			Expect(service.Execute(ctx, p).Result).To(Equal(actor.FailureGuard))
		})
	})

	Describe("SO", func() {
		vfModule := func(operation string) actor.Params {
			p := params("SO", operation, map[string]string{
				controlloop.VserverVserverName:   "vlb-vm-01",
				controlloop.ResourceID:           "ff5256d2-5a33-55df-13ab-12abad84e7ff",
				controlloop.ModelInvariantID:     "e6130d03-56f1-4b0a-9a1d-e1b2ac3a8f01",
				controlloop.ModelVersionID:       "94b18b1d-cc91-4f43-911a-e6348665f292",
				controlloop.ModelCustomizationID: "47958575-138f-452a-8c8d-d89b595f8164",
				controlloop.ModelName:            "VdnsloadbalancerCl..dnsscaling..module-1",
				controlloop.ModelVersion:         "1",
			})
			p.Payload = map[string]interface{}{"requestParameters": `{"usePreload": true}`}
			return p
		}

		It("creates a VF module after resolving the inventory", func() {
			outcome := service.Execute(ctx, vfModule("VF Module Create"))
			Expect(outcome.Result).To(Equal(actor.Success), outcome.Message)
			Expect(outcome.Message).To(Equal("request complete"))
		})

		It("deletes the VF module", func() {
			outcome := service.Execute(ctx, vfModule("VF Module Delete"))
			Expect(outcome.Result).To(Equal(actor.Success), outcome.Message)
		})
	})

	Describe("VF-C", func() {
		It("heals the VM", func() {
			outcome := service.Execute(ctx, params("VFC", "Restart", map[string]string{
				controlloop.ServiceInstanceID:  "ns-01",
				controlloop.GenericVnfVnfID:    "vnf-01",
				controlloop.VserverVserverID:   "vm-01",
				controlloop.VserverVserverName: "vlb-vm-01",
			}))
			Expect(outcome.Result).To(Equal(actor.Success))
			Expect(outcome.Message).To(Equal("heal finished"))
		})
	})

	Describe("APPC LCM", func() {
		It("restarts a VNF", func() {
			outcome := service.Execute(ctx, params("APPC", "Restart", map[string]string{controlloop.GenericVnfVnfID: "vnf-01"}))
			Expect(outcome.Result).To(Equal(actor.Success))
			Expect(outcome.Message).To(Equal("SUCCESS"))
		})

		It("reports the APPC failure", func() {
			outcome := service.Execute(ctx, params("APPC", "ConfigModify", map[string]string{controlloop.GenericVnfVnfID: simulators.AppcFailVnf}))
			Expect(outcome.Result).To(Equal(actor.Failure))
			Expect(outcome.Message).To(Equal("FAILURE"))
		})
	})

	Describe("CDS", func() {
		It("executes the workflow", func() {
			outcome := service.Execute(ctx, params("CDS", "modify-config", map[string]string{controlloop.GenericVnfVnfID: "vnf-01"}))
			Expect(outcome.Result).To(Equal(actor.Success))
			Expect(outcome.Message).To(Equal("workflow executed"))
		})

		It("reports a failed workflow", func() {
			outcome := service.Execute(ctx, params("CDS", simulators.CdsFailureAction, nil))
			Expect(outcome.Result).To(Equal(actor.Failure))
			Expect(outcome.Message).To(Equal("workflow failed"))
		})
	})

	Describe("Guard", func() {
		It("permits through XACML", func() {
			p := params("XACML", "Decision", nil)
			p.Payload = map[string]interface{}{"actor": "SO", "operation": "VF Module Create", "clname": "ControlLoop-vLB"}
			Expect(service.Execute(ctx, p).Result).To(Equal(actor.Success))
		})
	})
})
