package simulators

import (
	"errors"
	"io"
	"time"

	"google.golang.org/grpc"

	cdsactor "github.com/thc1006/onap-policy-actors/pkg/actors/cds"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/models/cds"
)

// CdsFailureAction is the action name CDS fails.
const CdsFailureAction = "failure-action"

// Cds answers every execution request with PROCESSING followed by
// EXECUTED, or FAILURE for CdsFailureAction.
type Cds struct {
	log logging.Logger
}

// NewCds returns the CDS simulator.
func NewCds() *Cds {
	return &Cds{log: logging.NewLogger(logging.ComponentSimulator).WithValues("simulator", "cds")}
}

// NewCdsServer returns a gRPC server with the simulator registered.
func NewCdsServer(opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	cdsactor.RegisterProcessServer(s, NewCds())
	return s
}

// Process implements cdsactor.ProcessServer.
func (c *Cds) Process(stream cdsactor.ProcessStream) error {
	for {
		in, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		action := ""
		if in.ActionIdentifiers != nil {
			action = in.ActionIdentifiers.ActionName
		}
		c.log.InfoEvent("CDS request", "action", action)

		final := &cds.Status{Code: 200, EventType: cds.EventComponentExecuted, Message: "workflow executed"}
		if action == CdsFailureAction {
			final = &cds.Status{Code: 500, EventType: cds.EventComponentFailure, ErrorMessage: "workflow failed"}
		}

		for _, st := range []*cds.Status{
			{Code: 200, EventType: cds.EventComponentProcessing, Message: "workflow processing"},
			final,
		} {
			st.Timestamp = time.Now().UTC()
			if err := stream.Send(&cds.ExecutionServiceOutput{
				CommonHeader:      in.CommonHeader,
				ActionIdentifiers: in.ActionIdentifiers,
				Status:            st,
			}); err != nil {
				return err
			}
		}
	}
}
