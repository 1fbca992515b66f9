package httpop

import (
	"errors"
	"time"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
)

// Params are the operator parameters shared by every HTTP operator.
type Params struct {
	ClientName  string `json:"clientName"`
	Path        string `json:"path"`
	TimeoutSec  int    `json:"timeoutSec,omitempty"`
	PollPath    string `json:"pollPath,omitempty"`
	MaxPolls    int    `json:"maxPolls,omitempty"`
	PollWaitSec int    `json:"pollWaitSec,omitempty"`
}

// Validate checks the fields common to all HTTP operators.
func (p Params) Validate(polling bool) error {
	if p.ClientName == "" {
		return errors.New("clientName is required")
	}
	if p.Path == "" {
		return errors.New("path is required")
	}
	if p.TimeoutSec < 0 {
		return errors.New("timeoutSec must not be negative")
	}
	if polling {
		if p.MaxPolls < 1 {
			return errors.New("maxPolls must be at least 1")
		}
		if p.PollWaitSec < 0 {
			return errors.New("pollWaitSec must not be negative")
		}
	}
	return nil
}

// Config is an HTTP operator's resolved configuration.
type Config struct {
	Client  *Client
	Path    string
	Timeout time.Duration

	// Polling fields, zero for operators that do not poll.
	PollPath string
	MaxPolls int
	PollWait time.Duration
}

// NewConfig decodes and validates params and resolves the named client.
func NewConfig(params map[string]interface{}, factory *ClientFactory, polling bool) (*Config, error) {
	var p Params
	if err := actor.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(polling); err != nil {
		return nil, err
	}

	client, err := factory.Get(p.ClientName)
	if err != nil {
		return nil, err
	}

	return &Config{
		Client:   client,
		Path:     p.Path,
		Timeout:  time.Duration(p.TimeoutSec) * time.Second,
		PollPath: p.PollPath,
		MaxPolls: p.MaxPolls,
		PollWait: time.Duration(p.PollWaitSec) * time.Second,
	}, nil
}
