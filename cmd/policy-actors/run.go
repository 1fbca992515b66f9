package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

type runOptions struct {
	actorName  string
	operation  string
	requestID  string
	clName     string
	target     string
	targetType string
	targetIDs  []string
	payload    string
	retry      int
	timeout    time.Duration
	noGuard    bool
}

func newRunCmd(configPath *string) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one operation and print its outcome as JSON",
		Example: `  policy-actors run -c config.yaml --actor SDNC --operation Reroute \
    --target-id service-instance.service-instance-id=svc-1 \
    --target-id network-information.network-id=net-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.params()
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			var outcome *actor.Outcome
			if opts.noGuard {
				outcome = rt.service.Query(ctx, params)
			} else {
				outcome = rt.service.Execute(ctx, params)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome); err != nil {
				return err
			}
			if !outcome.Result.IsSuccess() {
				return fmt.Errorf("%s: %s", outcome.Result, outcome.Message)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.actorName, "actor", "", "Actor name, e.g. SDNC")
	f.StringVar(&opts.operation, "operation", "", "Operation name, e.g. Reroute")
	f.StringVar(&opts.requestID, "request-id", "", "Request id (generated when empty)")
	f.StringVar(&opts.clName, "closed-loop", "", "Closed loop control name")
	f.StringVar(&opts.target, "target", "", "Target entity")
	f.StringVar(&opts.targetType, "target-type", "", "Target type, e.g. VNF or PNF")
	f.StringArrayVar(&opts.targetIDs, "target-id", nil, "Target entity id as key=value (repeatable)")
	f.StringVar(&opts.payload, "payload", "", "Operation payload as a JSON object, or @file")
	f.IntVar(&opts.retry, "retry", 0, "Number of retries after a failed attempt")
	f.DurationVar(&opts.timeout, "timeout", 0, "Per-attempt timeout (operator default when zero)")
	f.BoolVar(&opts.noGuard, "no-guard", false, "Skip the guard check")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("operation")
	return cmd
}

func (o runOptions) params() (actor.Params, error) {
	p := actor.Params{
		Actor:          o.actorName,
		Operation:      o.operation,
		ClosedLoopName: o.clName,
		TargetEntity:   o.target,
		TargetType:     controlloop.TargetType(strings.ToUpper(o.targetType)),
		Retry:          o.retry,
		Timeout:        o.timeout,
		RequestID:      uuid.New(),
	}

	if o.requestID != "" {
		id, err := uuid.Parse(o.requestID)
		if err != nil {
			return p, fmt.Errorf("invalid --request-id: %w", err)
		}
		p.RequestID = id
	}

	if len(o.targetIDs) > 0 {
		p.TargetEntityIDs = make(map[string]string, len(o.targetIDs))
		for _, kv := range o.targetIDs {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return p, fmt.Errorf("invalid --target-id %q, want key=value", kv)
			}
			p.TargetEntityIDs[key] = value
		}
	}

	if o.payload != "" {
		data := []byte(o.payload)
		if path, ok := strings.CutPrefix(o.payload, "@"); ok {
			var err error
			if data, err = os.ReadFile(path); err != nil {
				return p, err
			}
		}
		if err := json.Unmarshal(data, &p.Payload); err != nil {
			return p, fmt.Errorf("invalid --payload: %w", err)
		}
	}

	return p, p.Validate()
}
