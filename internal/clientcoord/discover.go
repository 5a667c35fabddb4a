package clientcoord

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dreamware/taskmesh/internal/protocol"
	"golang.org/x/sync/errgroup"
)

const assignDiscoveryDeadline = 2 * time.Second
const assignDiscoveryRetryDelay = 2 * time.Second

// discoverAssignment broadcasts AssignRequest to every known server
// address in parallel, accepts the first AssignResponse, and cancels the
// rest. If nothing answers (no coordinator currently reachable), it waits
// and retries indefinitely until ctx is cancelled.
func (c *Client) discoverAssignment(ctx context.Context, requestID uint64) (Assignment, error) {
	for {
		assignment, ok := c.tryDiscoverOnce(ctx, requestID)
		if ok {
			return assignment, nil
		}

		select {
		case <-ctx.Done():
			return Assignment{}, ctx.Err()
		case <-time.After(assignDiscoveryRetryDelay):
		}
	}
}

func (c *Client) tryDiscoverOnce(ctx context.Context, requestID uint64) (Assignment, bool) {
	roundCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan Assignment, 1)

	g, gctx := errgroup.WithContext(roundCtx)
	for _, addr := range c.cfg.ServerAddresses {
		addr := addr
		g.Go(func() error {
			assignment, err := c.requestAssignment(gctx, addr, requestID)
			if err != nil {
				return nil // one server's failure doesn't fail the round
			}
			select {
			case result <- assignment:
				cancel()
			default:
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() { g.Wait(); close(done) }()

	select {
	case assignment := <-result:
		return assignment, true
	case <-done:
		select {
		case assignment := <-result:
			return assignment, true
		default:
			return Assignment{}, false
		}
	case <-ctx.Done():
		return Assignment{}, false
	}
}

func (c *Client) requestAssignment(ctx context.Context, addr string, requestID uint64) (Assignment, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Assignment{}, fmt.Errorf("clientcoord: dial %s: %w", addr, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(assignDiscoveryDeadline))

	fc := protocol.NewConn(conn)
	if err := fc.WriteMessage(&protocol.Message{
		Type:          protocol.TypeAssignRequest,
		AssignRequest: &protocol.AssignRequestMsg{ClientID: c.clientID, RequestID: requestID},
	}); err != nil {
		return Assignment{}, err
	}

	msg, err := fc.ReadMessage()
	if err != nil {
		return Assignment{}, err
	}
	if msg.Type != protocol.TypeAssignResponse || msg.AssignResponse == nil {
		return Assignment{}, fmt.Errorf("clientcoord: unexpected reply from %s", addr)
	}

	return Assignment{
		ServerID: msg.AssignResponse.AssignedServerID,
		Address:  msg.AssignResponse.AssignedServerAddress,
	}, nil
}
