package election

import (
	"math/rand"
	"time"

	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
)

// State is one of the four states of the modified Bully state machine.
type State string

const (
	StateIdle     State = "idle"
	StateElecting State = "electing"
	StateLeader   State = "leader"
	StateFollower State = "follower"
)

const reelectionStagger = 100 * time.Millisecond

// Engine runs the modified-Bully election state machine for one server. It
// is driven by an internal event loop (one goroutine) so that state
// transitions never race each other. All network sends happen through
// peerlink.Manager.Send/Broadcast, which never blocks the caller, so the
// event loop never suspends on the network.
type Engine struct {
	shared *server.Shared
	link   *peerlink.Manager
	log    zerolog.Logger

	events chan event

	state      State
	followerOf uint32
	term       uint64 // incremented every begin_election; stale timers are ignored

	// priorityFn defaults to shared.Sensor.Priority but can be overridden
	// in tests.
	priorityFn func() (float64, error)
}

type event interface{}

type evElection struct {
	from     uint32
	priority float64
}
type evAlive struct{ from uint32 }
type evCoordinator struct{ id uint32 }
type evTimeout struct{ term uint64 }
type evBeginElection struct{ term uint64 } // term==0 means "always run" (startup / re-election stagger)
type evLeaderLost struct{}
type stateQuery struct{ resp chan stateSnapshot }

type stateSnapshot struct {
	state      State
	followerOf uint32
}

// New constructs an Engine. Run must be called to start its event loop.
func New(shared *server.Shared, link *peerlink.Manager, log zerolog.Logger) *Engine {
	e := &Engine{
		shared: shared,
		link:   link,
		log:    log,
		events: make(chan event, 64),
		state:  StateIdle,
	}
	e.priorityFn = shared.Sensor.Priority
	return e
}

// Run is the engine's event loop. It blocks until done is closed; callers
// run it in its own goroutine (tests pass a channel they control).
func (e *Engine) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-e.events:
			e.handle(ev)
		}
	}
}

// StartupTimer arms the startup delay: 3s + uniform(100ms,500ms), after
// which a self-triggered begin_election fires.
func (e *Engine) StartupTimer() {
	delay := 3*time.Second + randDuration(100*time.Millisecond, 500*time.Millisecond)
	time.AfterFunc(delay, func() {
		e.events <- evBeginElection{term: 0}
	})
}

// LeaderLost notifies the engine that the failure detector declared the
// current leader failed.
func (e *Engine) LeaderLost() {
	e.events <- evLeaderLost{}
}

// HandleElection processes an incoming Election(from, priority) message.
func (e *Engine) HandleElection(from uint32, priority float64) {
	e.events <- evElection{from: from, priority: priority}
}

// HandleAlive processes an incoming Alive(from) message.
func (e *Engine) HandleAlive(from uint32) {
	e.events <- evAlive{from: from}
}

// HandleCoordinator processes an incoming Coordinator(id) message.
func (e *Engine) HandleCoordinator(id uint32) {
	e.events <- evCoordinator{id: id}
}

// State returns a snapshot of the engine's current state, for tests and
// diagnostics. Safe to call from any goroutine.
func (e *Engine) State() (State, uint32) {
	resp := make(chan stateSnapshot, 1)
	e.events <- stateQuery{resp: resp}
	snap := <-resp
	return snap.state, snap.followerOf
}

func (e *Engine) handle(ev event) {
	switch v := ev.(type) {
	case evBeginElection:
		if v.term != 0 && v.term != e.term {
			return // stale begin request from a superseded election
		}
		e.beginElection()
	case evElection:
		e.onElection(v.from, v.priority)
	case evAlive:
		if e.state == StateElecting {
			e.shared.SetElectionFlag(true)
		}
	case evCoordinator:
		e.onCoordinator(v.id)
	case evTimeout:
		if v.term != e.term {
			return // stale timeout from a superseded election
		}
		e.onElectionTimeout()
	case evLeaderLost:
		e.shared.SetLeader(nil)
		e.beginElection()
	case stateQuery:
		v.resp <- stateSnapshot{state: e.state, followerOf: e.followerOf}
	}
}

// beginElection runs the begin_election action: bump the term, broadcast
// an Election bid at this node's current priority, and arm the timeout.
func (e *Engine) beginElection() {
	e.term++
	term := e.term

	e.shared.SetElectionFlag(false)
	e.state = StateElecting

	priority, err := e.priorityFn()
	if err != nil {
		e.log.Warn().Err(err).Msg("election: priority read failed, assuming worst case")
		priority = 100
	}

	e.log.Info().Uint32("node_id", e.shared.NodeID).Float64("priority", priority).Msg("election: beginning")

	e.link.Broadcast(&protocol.Message{
		Type:     protocol.TypeElection,
		Election: &protocol.ElectionMsg{FromID: e.shared.NodeID, Priority: priority},
	})

	timeout := e.shared.Timing.ElectionTimeout()
	time.AfterFunc(timeout, func() {
		e.events <- evTimeout{term: term}
	})
}

// onElection handles an incoming Election message.
func (e *Engine) onElection(from uint32, theirPriority float64) {
	myPriority, err := e.priorityFn()
	if err != nil {
		myPriority = 100
	}

	if myPriority < theirPriority {
		e.link.Send(from, &protocol.Message{
			Type:  protocol.TypeAlive,
			Alive: &protocol.AliveMsg{FromID: e.shared.NodeID},
		})
		time.AfterFunc(reelectionStagger, func() {
			e.events <- evBeginElection{term: 0}
		})
	}
	// myPriority >= theirPriority: defer, no response.
}

// onElectionTimeout handles the election-timeout transition.
func (e *Engine) onElectionTimeout() {
	if e.state != StateElecting {
		// A Coordinator or a fresher election already moved this node out
		// of Electing since the timeout was armed; this firing is stale.
		return
	}

	if e.shared.ElectionFlag() {
		e.state = StateIdle
		return
	}

	self := e.shared.NodeID
	e.state = StateLeader
	e.shared.SetLeader(&self)

	e.log.Info().Uint32("node_id", self).Msg("election: became leader")

	e.link.Broadcast(&protocol.Message{
		Type:        protocol.TypeCoordinator,
		Coordinator: &protocol.CoordinatorMsg{LeaderID: self},
	})
}

// onCoordinator handles an incoming Coordinator message: leader state is
// set unconditionally, even if this server is mid-election — a
// Coordinator broadcast can arrive before this node's own election
// resolves, and the Coordinator always wins.
func (e *Engine) onCoordinator(id uint32) {
	e.shared.SetLeader(&id)
	if id == e.shared.NodeID {
		e.state = StateLeader
	} else {
		e.state = StateFollower
		e.followerOf = id
	}
}

func randDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}
