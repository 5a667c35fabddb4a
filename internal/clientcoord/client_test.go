package clientcoord

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeServer accepts connections until the test ends, reads one message on
// each, hands it to handle, and then closes that connection.
func fakeServer(t *testing.T, handle func(conn *protocol.Conn, msg *protocol.Message)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer raw.Close()
				fc := protocol.NewConn(raw)
				msg, err := fc.ReadMessage()
				if err != nil {
					return
				}
				handle(fc, msg)
			}()
		}
	}()
	return ln.Addr().String()
}

func TestSubmitTaskHappyPath(t *testing.T) {
	addr := fakeServer(t, func(conn *protocol.Conn, msg *protocol.Message) {
		switch msg.Type {
		case protocol.TypeAssignRequest:
			_ = conn.WriteMessage(&protocol.Message{
				Type: protocol.TypeAssignResponse,
				AssignResponse: &protocol.AssignResponseMsg{
					RequestID: msg.AssignRequest.RequestID, AssignedServerID: 1, AssignedServerAddress: conn.Raw().LocalAddr().String(),
				},
			})
		case protocol.TypeTaskRequest:
			_ = conn.WriteMessage(&protocol.Message{
				Type: protocol.TypeTaskResponse,
				TaskResponse: &protocol.TaskResponseMsg{
					RequestID: msg.TaskRequest.RequestID, OK: true, ResultBytes: []byte("result"),
				},
			})
			_, _ = conn.ReadMessage() // the client's TaskAck
		}
	})

	cfg := &config.ClientConfig{ServerAddresses: []string{addr}}
	cfg.Client.Name = "c1"

	c := New(cfg, func(result []byte) (string, error) { return "hello", nil }, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.SubmitTask(ctx, 1, []byte("payload"), "p.png", "hello")
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "result", string(resp.ResultBytes))
}

func TestDiscoverAssignmentRetriesUntilCancel(t *testing.T) {
	cfg := &config.ClientConfig{ServerAddresses: []string{"127.0.0.1:1"}} // nothing listening
	cfg.Client.Name = "c1"

	c := New(cfg, func([]byte) (string, error) { return "", nil }, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.discoverAssignment(ctx, 1)
	require.Error(t, err)
}

func TestNewRequestIDIsNonZeroAndVaries(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	require.NotZero(t, a)
	require.NotZero(t, b)
	require.NotEqual(t, a, b)
}
