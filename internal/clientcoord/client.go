package clientcoord

import (
	"context"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/transform"
	"github.com/rs/zerolog"
)

const defaultHysteresisThreshold = 10

// Client drives one task end-to-end: discover the coordinator's
// assignment, execute and verify the task, and fail over to reassignment
// polling for as long as it takes.
type Client struct {
	cfg      *config.ClientConfig
	clientID string
	inverse  transform.InverseFunc
	log      zerolog.Logger

	hysteresisThreshold int
}

// New constructs a Client from a loaded ClientConfig and the inverse
// transform used to verify results.
func New(cfg *config.ClientConfig, inverse transform.InverseFunc, log zerolog.Logger) *Client {
	threshold := cfg.ReassignmentHysteresisPolls
	if threshold <= 0 {
		threshold = defaultHysteresisThreshold
	}
	return &Client{
		cfg:                 cfg,
		clientID:            cfg.Client.Name,
		inverse:             inverse,
		log:                 log,
		hysteresisThreshold: threshold,
	}
}

// SubmitTask runs one task to a verified completion: discover an
// assignment, execute it, and keep reassigning and retrying until the
// inverse transform confirms the result or ctx is cancelled.
func (c *Client) SubmitTask(ctx context.Context, requestID uint64, payload []byte, payloadName, parameterText string) (*protocol.TaskResponseMsg, error) {
	assignment, err := c.discoverAssignment(ctx, requestID)
	if err != nil {
		return nil, err
	}

	for {
		resp, verified := c.executeOnce(ctx, assignment, requestID, payload, payloadName, parameterText)
		if verified {
			return resp, nil
		}

		next, err := c.pollUntilReassigned(ctx, requestID, assignment)
		if err != nil {
			return nil, err
		}
		assignment = next
	}
}
