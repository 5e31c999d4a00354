// Package server implements one aggregation server's half of the
// protocol: receiving share payloads, producing verification shares, and
// accumulating accepted data shares into a running aggregate share.
//
// A server never decides accept or reject on its own. It emits a
// verification share for each instance and waits for the combine decision,
// which is made outside its trust boundary by a party that sees both
// servers' verification shares. Only after an accept decision may an
// instance's data share enter the aggregate.
package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abetterinternet/prio-go/crypto"
	"github.com/abetterinternet/prio-go/protocol"
)

// Server holds one aggregation server's state for a batch. Verification of
// distinct instances is independent and may run on concurrent goroutines;
// the aggregate share is the only shared structure and is guarded
// internally.
type Server struct {
	config   *protocol.Config
	isLeader bool

	mu         sync.Mutex
	aggregate  []crypto.Element
	aggregated uint64
}

// New creates a server for the given configuration. Exactly one of the two
// servers in a protocol run must be the leader; the leader's verification
// share absorbs the predicate's public constants.
func New(config *protocol.Config, isLeader bool) (*Server, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	return &Server{
		config:    config,
		isLeader:  isLeader,
		aggregate: make([]crypto.Element, config.Dimension()),
	}, nil
}

// IsLeader reports whether this server holds the leader role.
func (s *Server) IsLeader() bool { return s.isLeader }

// Config returns the server's configuration.
func (s *Server) Config() *protocol.Config { return s.config }

type instanceState int

const (
	stateReceived instanceState = iota
	stateVerified
	stateAccepted
	stateRejected
	stateAggregated
)

// Instance tracks one client submission through the verification state
// machine: Received, Verified, then either accepted (and eventually
// aggregated) or rejected (and discarded). Transitions out of order fail;
// a rejected instance's data share is dropped and can never be aggregated.
//
// An Instance is owned by a single goroutine.
type Instance struct {
	state        instanceState
	dataShare    []crypto.Element
	proofShare   []crypto.Element
	verification *protocol.VerificationShare
}

// Receive validates a client packet against the server's configuration and
// opens a verification instance for it. Shape mismatches fail with
// protocol.ErrMalformedShare.
func (s *Server) Receive(packet *protocol.ClientPacket) (*Instance, error) {
	dataShare, proofShare, err := s.config.OpenPacket(packet)
	if err != nil {
		return nil, err
	}
	return &Instance{
		state:      stateReceived,
		dataShare:  dataShare,
		proofShare: proofShare,
	}, nil
}

// ReceiveSealed opens an ECIES-sealed payload blob with the server's KEM
// private key and passes the recovered packet to Receive.
func (s *Server) ReceiveSealed(blob []byte, key crypto.KemPrivateKey) (*Instance, error) {
	sealed, err := protocol.UnmarshalMessage[crypto.SealedPayload](blob)
	if err != nil {
		return nil, fmt.Errorf("parse sealed payload: %w", err)
	}
	plaintext, err := crypto.Open(key, sealed)
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	packet, err := protocol.UnmarshalMessage[protocol.ClientPacket](plaintext)
	if err != nil {
		return nil, fmt.Errorf("parse client packet: %w", err)
	}
	return s.Receive(packet)
}

// Verify produces the server's verification share for an instance, using
// the verification seed shared with the other server for this instance.
// Each instance can be verified exactly once.
func (s *Server) Verify(inst *Instance, seed []byte) (*protocol.VerificationShare, error) {
	if inst.state != stateReceived {
		return nil, errors.New("instance already verified")
	}
	r, err := s.config.ChallengePoint(seed)
	if err != nil {
		return nil, err
	}
	verification, err := s.config.GenerateVerificationShare(inst.dataShare, inst.proofShare, s.isLeader, r)
	if err != nil {
		return nil, err
	}
	inst.state = stateVerified
	inst.verification = verification
	return verification, nil
}

// RecordDecision applies the external combine decision to a verified
// instance. A reject discards the data share immediately.
func (inst *Instance) RecordDecision(accept bool) error {
	if inst.state != stateVerified {
		return errors.New("instance has no pending verification decision")
	}
	if accept {
		inst.state = stateAccepted
		return nil
	}
	inst.state = stateRejected
	inst.dataShare = nil
	inst.proofShare = nil
	return nil
}

// Aggregate folds an accepted instance's data share into the server's
// running aggregate share. Field addition is associative and commutative,
// so the order instances arrive in does not matter. Aggregating an
// instance that was not accepted, or aggregating one twice, is an error.
func (s *Server) Aggregate(inst *Instance) error {
	if inst.state != stateAccepted {
		return errors.New("only accepted instances can be aggregated")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.config.Field().MergeVector(s.aggregate, inst.dataShare); err != nil {
		return err
	}
	inst.state = stateAggregated
	inst.dataShare = nil
	inst.proofShare = nil
	s.aggregated++
	return nil
}

// TotalShare returns a snapshot of the server's aggregate share for the
// external combiner.
func (s *Server) TotalShare() []crypto.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crypto.Element, len(s.aggregate))
	copy(out, s.aggregate)
	return out
}

// AggregatedCount returns how many instances have been folded into the
// aggregate share.
func (s *Server) AggregatedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregated
}

// Reset clears the aggregate share for a new batch.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregate = make([]crypto.Element, s.config.Dimension())
	s.aggregated = 0
}
