package clientcoord

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dreamware/taskmesh/internal/protocol"
)

const pollInterval = 2 * time.Second
const pollResponseDeadline = 2 * time.Second

// pollUntilReassigned broadcasts TaskStatusQuery every poll interval until
// a server answers. If the answer names a different server than
// previous, it is returned immediately. If it keeps naming the same
// server for the configured hysteresis threshold of consecutive polls,
// that same server is retried anyway, on the theory it may have
// recovered.
func (c *Client) pollUntilReassigned(ctx context.Context, requestID uint64, previous Assignment) (Assignment, error) {
	sameCount := 0

	for {
		select {
		case <-ctx.Done():
			return Assignment{}, ctx.Err()
		case <-time.After(pollInterval):
		}

		assignment, ok := c.tryPollOnce(ctx, requestID)
		if !ok {
			continue // whole cluster unreachable; keep polling
		}

		if assignment.ServerID != previous.ServerID {
			return assignment, nil
		}

		sameCount++
		if sameCount >= c.hysteresisThreshold {
			return assignment, nil
		}
	}
}

// tryPollOnce broadcasts one TaskStatusQuery round and returns the first
// reply received, if any.
func (c *Client) tryPollOnce(ctx context.Context, requestID uint64) (Assignment, bool) {
	type pollResult struct {
		assignment Assignment
		ok         bool
	}

	roundCtx, cancel := context.WithTimeout(ctx, pollResponseDeadline)
	defer cancel()

	results := make(chan pollResult, len(c.cfg.ServerAddresses))
	for _, addr := range c.cfg.ServerAddresses {
		addr := addr
		go func() {
			assignment, err := c.queryTaskStatus(roundCtx, addr, requestID)
			if err != nil {
				results <- pollResult{}
				return
			}
			results <- pollResult{assignment: assignment, ok: true}
		}()
	}

	for range c.cfg.ServerAddresses {
		select {
		case r := <-results:
			if r.ok {
				return r.assignment, true
			}
		case <-roundCtx.Done():
			return Assignment{}, false
		}
	}
	return Assignment{}, false
}

func (c *Client) queryTaskStatus(ctx context.Context, addr string, requestID uint64) (Assignment, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Assignment{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	fc := protocol.NewConn(conn)
	if err := fc.WriteMessage(&protocol.Message{
		Type:             protocol.TypeTaskStatusQuery,
		TaskStatusQuery: &protocol.TaskStatusQueryMsg{ClientID: c.clientID, RequestID: requestID},
	}); err != nil {
		return Assignment{}, err
	}

	msg, err := fc.ReadMessage()
	if err != nil {
		return Assignment{}, err
	}
	if msg.Type != protocol.TypeTaskStatusResponse || msg.TaskStatusResponse == nil {
		return Assignment{}, fmt.Errorf("clientcoord: unexpected reply from %s", addr)
	}

	return Assignment{
		ServerID: msg.TaskStatusResponse.AssignedServerID,
		Address:  msg.TaskStatusResponse.AssignedServerAddress,
	}, nil
}
