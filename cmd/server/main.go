// Package main implements the taskmesh server process: one cooperating
// node in the cluster, able at any moment to be coordinator, follower, or
// mid-election, depending on its load relative to its peers rather than
// any fixed identity.
//
// Each server:
//   - Elects a coordinator using the modified Bully algorithm (internal/election)
//   - Detects peer failure from missed heartbeats (internal/failuredetect)
//   - Assigns incoming tasks to the least-loaded node, if it is coordinator
//     (internal/assignment)
//   - Executes tasks assigned to it (internal/executor)
//   - Replicates the task-assignment history to every peer (internal/history)
//
// Configuration is a YAML file (see internal/config.ServerConfig); the path
// defaults to "server.yaml" and can be overridden with -config or the
// TASKMESH_SERVER_CONFIG environment variable.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/taskmesh/internal/assignment"
	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/election"
	"github.com/dreamware/taskmesh/internal/executor"
	"github.com/dreamware/taskmesh/internal/failuredetect"
	"github.com/dreamware/taskmesh/internal/heartbeat"
	"github.com/dreamware/taskmesh/internal/history"
	"github.com/dreamware/taskmesh/internal/loadsensor"
	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/dreamware/taskmesh/internal/transform/lsb"
	"github.com/rs/zerolog"
)

// logFatal is a seam for tests around fatal startup errors.
var logFatal = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", envOr("TASKMESH_SERVER_CONFIG", "server.yaml"), "path to server config YAML")
	flag.Parse()

	log := newLogger()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logFatal("taskmesh-server: %v", err)
		return
	}

	peerAddrs := make(map[uint32]string, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peerAddrs[p.ID] = p.Address
	}

	sensor := loadsensor.New()
	shared := server.New(cfg.Server.ID, peerAddrs, cfg.Timing, sensor, log)
	shared.SetAddress(cfg.Server.Address)

	link := peerlink.New(log)
	for _, p := range cfg.Peers {
		link.AddPeer(p.ID, p.Address)
	}

	elec := election.New(shared, link, log)
	assignSvc := assignment.New(shared, link, log)
	exec := executor.New(shared, link, lsb.Embed, log)

	link.SetDispatch(func(fromID uint32, msg *protocol.Message, reply func(*protocol.Message) error) {
		switch msg.Type {
		case protocol.TypeElection:
			elec.HandleElection(msg.Election.FromID, msg.Election.Priority)
		case protocol.TypeAlive:
			elec.HandleAlive(msg.Alive.FromID)
		case protocol.TypeCoordinator:
			elec.HandleCoordinator(msg.Coordinator.LeaderID)
		case protocol.TypeHeartbeat:
			heartbeat.Apply(shared, msg.Heartbeat)
		case protocol.TypeHistoryAdd:
			shared.History.Add(
				history.Key{ClientID: msg.HistoryAdd.ClientID, RequestID: msg.HistoryAdd.RequestID},
				msg.HistoryAdd.AssignedServerID,
				time.Unix(int64(msg.HistoryAdd.Timestamp), 0),
			)
		case protocol.TypeHistoryRemove:
			shared.History.Remove(history.Key{ClientID: msg.HistoryRemove.ClientID, RequestID: msg.HistoryRemove.RequestID})
		default:
			log.Warn().Uint32("from_id", fromID).Str("type", string(msg.Type)).Msg("main: unexpected peer message type")
		}
	})

	detector := failuredetect.New(shared, log, func(id uint32) {
		shared.History.PurgeServer(id)
	}, elec.LeaderLost)

	broadcaster := heartbeat.NewBroadcaster(shared, link, log)

	ln, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		logFatal("taskmesh-server: listen %s: %v", cfg.Server.Address, err)
		return
	}

	go elec.Run(make(chan struct{}))
	elec.StartupTimer()
	go detector.Run()
	go broadcaster.Run()
	go link.Serve(ln, peerlink.InboundHandlers{
		OnLeaderQuery: func() *protocol.Message {
			leader, _ := shared.Leader()
			return &protocol.Message{Type: protocol.TypeLeaderResponse, LeaderResponse: &protocol.LeaderResponseMsg{LeaderID: leader}}
		},
		OnAssignRequest:   assignSvc.HandleAssignRequest,
		OnTaskStatusQuery: assignSvc.HandleTaskStatusQuery,
		OnTaskRequest:     exec.Run,
	})

	log.Info().Uint32("node_id", cfg.Server.ID).Str("address", cfg.Server.Address).Msg("taskmesh-server: listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("taskmesh-server: shutting down")
	detector.Stop()
	broadcaster.Stop()
	_ = ln.Close()
}

func newLogger() zerolog.Logger {
	if os.Getenv("TASKMESH_LOG_FORMAT") == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
