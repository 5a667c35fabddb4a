package executor

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/loadsensor"
	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEndToEnd(t *testing.T) {
	shared := server.New(1, nil, config.Defaults(), loadsensor.New(), zerolog.Nop())
	link := peerlink.New(zerolog.Nop())

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	w := New(shared, link, func(payload []byte, param string) ([]byte, error) {
		return []byte("transformed:" + param), nil
	}, zerolog.Nop())
	w.ackTimeout = 500 * time.Millisecond

	serverConn := protocol.NewConn(a)
	clientConn := protocol.NewConn(b)

	done := make(chan struct{})
	go func() {
		w.Run(serverConn, &protocol.TaskRequestMsg{RequestID: 7, ClientID: "c1", ParameterText: "p"})
		close(done)
	}()

	resp, err := clientConn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, protocol.TypeTaskResponse, resp.Type)
	assert.True(t, resp.TaskResponse.OK)
	assert.Equal(t, "transformed:p", string(resp.TaskResponse.ResultBytes))

	require.NoError(t, clientConn.WriteMessage(&protocol.Message{
		Type:    protocol.TypeTaskAck,
		TaskAck: &protocol.TaskAckMsg{ClientID: "c1", RequestID: 7},
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after ack")
	}

	assert.EqualValues(t, 0, shared.Sensor.ActiveTasks())
}

func TestRunReportsTransformFailure(t *testing.T) {
	shared := server.New(1, nil, config.Defaults(), loadsensor.New(), zerolog.Nop())
	link := peerlink.New(zerolog.Nop())

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	w := New(shared, link, func([]byte, string) ([]byte, error) {
		return nil, errors.New("boom")
	}, zerolog.Nop())
	w.ackTimeout = 50 * time.Millisecond

	serverConn := protocol.NewConn(a)
	clientConn := protocol.NewConn(b)

	go w.Run(serverConn, &protocol.TaskRequestMsg{RequestID: 9})

	resp, err := clientConn.ReadMessage()
	require.NoError(t, err)
	assert.False(t, resp.TaskResponse.OK)
	assert.Equal(t, "boom", resp.TaskResponse.ErrorMessage)
}
