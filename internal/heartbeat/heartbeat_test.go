package heartbeat

import (
	"net"
	"testing"
	"time"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/loadsensor"
	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestApplyRecordsLastSeen(t *testing.T) {
	timing := config.Defaults()
	shared := server.New(1, map[uint32]string{2: "x"}, timing, loadsensor.New(), zerolog.Nop())

	Apply(shared, &protocol.HeartbeatMsg{FromID: 2, Load: 42, Timestamp: 1})

	live := shared.LivePeers(time.Now(), timing.FailureTimeout())
	ps, ok := live[2]
	require.True(t, ok)
	require.Equal(t, 42.0, ps.LastLoad)
}

func TestBroadcasterSendsHeartbeatToConnectedPeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	timing := config.Defaults()
	timing.HeartbeatIntervalSecs = 0.02
	shared := server.New(1, map[uint32]string{2: ln.Addr().String()}, timing, loadsensor.New(), zerolog.Nop())

	link := peerlink.New(zerolog.Nop())
	link.AddPeer(2, ln.Addr().String())

	b := NewBroadcaster(shared, link, zerolog.Nop())
	go b.Run()
	t.Cleanup(b.Stop)

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("peer connection never arrived")
	}
	defer conn.Close()

	fc := protocol.NewConn(conn)
	msg, err := fc.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, protocol.TypeHeartbeat, msg.Type)
	require.EqualValues(t, 1, msg.Heartbeat.FromID)
}
