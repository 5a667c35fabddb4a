package clientcoord

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dreamware/taskmesh/internal/protocol"
)

const taskResponseDeadline = 10 * time.Second

// executeOnce opens a fresh connection to assignment.Address, sends one
// TaskRequest, and awaits the TaskResponse. On success it acknowledges the
// result and verifies it with the inverse transform; verified reports
// whether that verification passed. Any failure short of verification
// (dial error, deadline expiry, transform mismatch) returns verified=false
// so the caller falls back to reassignment polling.
func (c *Client) executeOnce(ctx context.Context, assignment Assignment, requestID uint64, payload []byte, payloadName, parameterText string) (*protocol.TaskResponseMsg, bool) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", assignment.Address)
	if err != nil {
		c.log.Warn().Err(err).Str("address", assignment.Address).Msg("clientcoord: dial assigned server failed")
		return nil, false
	}
	defer conn.Close()

	fc := protocol.NewConn(conn)

	if err := fc.WriteMessage(&protocol.Message{
		Type: protocol.TypeTaskRequest,
		TaskRequest: &protocol.TaskRequestMsg{
			ClientID:         c.clientID,
			RequestID:        requestID,
			PayloadBytes:     payload,
			PayloadName:      payloadName,
			ParameterText:    parameterText,
			AssignedByLeader: assignment.ServerID,
		},
	}); err != nil {
		c.log.Warn().Err(err).Msg("clientcoord: sending task request failed")
		return nil, false
	}

	_ = conn.SetReadDeadline(time.Now().Add(taskResponseDeadline))
	msg, err := fc.ReadMessage()
	if err != nil {
		c.log.Warn().Err(err).Msg("clientcoord: awaiting task response failed")
		return nil, false
	}
	if msg.Type != protocol.TypeTaskResponse || msg.TaskResponse == nil {
		return nil, false
	}

	resp := msg.TaskResponse
	if !resp.OK {
		c.log.Warn().Str("error", resp.ErrorMessage).Msg("clientcoord: server reported transform failure")
		return resp, false
	}

	if err := fc.WriteMessage(&protocol.Message{
		Type:    protocol.TypeTaskAck,
		TaskAck: &protocol.TaskAckMsg{ClientID: c.clientID, RequestID: requestID},
	}); err != nil {
		c.log.Warn().Err(err).Msg("clientcoord: sending task ack failed")
	}

	verified, err := c.verify(resp.ResultBytes, parameterText)
	if err != nil {
		c.log.Warn().Err(err).Msg("clientcoord: verification failed")
		return resp, false
	}
	return resp, verified
}

func (c *Client) verify(result []byte, parameterText string) (bool, error) {
	got, err := c.inverse(result)
	if err != nil {
		return false, fmt.Errorf("clientcoord: inverse transform: %w", err)
	}
	return got == parameterText, nil
}
