// Package aggregator implements the combiner roles that sit outside both
// servers' trust boundaries: deciding accept or reject from the two
// verification shares, and reconstructing the batch statistic from the two
// aggregate shares.
//
// It also provides a batch driver that fans verification out across worker
// goroutines. Verification of distinct clients has no data dependency, so
// the batch parallelizes at per-client granularity with no synchronization
// beyond the servers' internal aggregate guard.
package aggregator

import (
	"errors"
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/abetterinternet/prio-go/crypto"
	"github.com/abetterinternet/prio-go/protocol"
	"github.com/abetterinternet/prio-go/server"
)

// CombineVerificationShares applies the combine decision for one client:
// accept exactly when the two verification shares cancel to the identity.
func CombineVerificationShares(config *protocol.Config, a, b *protocol.VerificationShare) bool {
	return config.CombineVerificationShares(a, b)
}

// ReconstructTotal adds the two servers' aggregate shares and decodes the
// batch statistic: a single sum for the sum encoding, per-bucket counts
// for the histogram encoding.
func ReconstructTotal(config *protocol.Config, shareA, shareB []crypto.Element) ([]uint64, error) {
	totals, err := config.Field().ReconstructShares(shareA, shareB)
	if err != nil {
		return nil, err
	}
	return config.DecodeAggregate(totals)
}

// Bundle carries one client's two packets plus the nonce that binds its
// verification instance to the batch key.
type Bundle struct {
	LeaderPacket *protocol.ClientPacket
	HelperPacket *protocol.ClientPacket
	Nonce        []byte
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	// Accepted counts clients whose shares were verified and aggregated.
	Accepted uint64

	// Rejected counts clients whose proof failed the combined check;
	// their data shares were discarded.
	Rejected uint64

	// Malformed counts clients whose packets never reached verification
	// (wrong shape or parameters). These are bugs or corruption, not
	// protocol rejections, and are reported separately.
	Malformed uint64
}

// BatchVerifier drives verification and aggregation of many clients
// against a leader/helper server pair.
type BatchVerifier struct {
	config    *protocol.Config
	sharedKey crypto.SharedKey
	workers   int
}

// NewBatchVerifier creates a batch driver. sharedKey is the verification
// key both servers agreed on out of band for this batch. workers <= 0
// selects one worker per CPU.
func NewBatchVerifier(config *protocol.Config, sharedKey crypto.SharedKey, workers int) (*BatchVerifier, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if len(sharedKey) == 0 {
		return nil, errors.New("shared key cannot be empty")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchVerifier{config: config, sharedKey: sharedKey, workers: workers}, nil
}

// Run verifies every bundle against the server pair, applies the combine
// decision to both servers, and aggregates accepted shares. Bundles are
// processed by a pool of workers; batch order is irrelevant because the
// aggregate is a field sum.
func (bv *BatchVerifier) Run(leader, helper *server.Server, bundles []Bundle) (BatchResult, error) {
	if leader == nil || helper == nil {
		return BatchResult{}, errors.New("both servers are required")
	}
	if !leader.IsLeader() || helper.IsLeader() {
		return BatchResult{}, errors.New("exactly one server must be the leader")
	}

	var accepted, rejected, malformed atomic.Uint64

	work := make(chan *Bundle)
	var wg sync.WaitGroup
	for w := 0; w < bv.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for bundle := range work {
				switch bv.processOne(leader, helper, bundle) {
				case outcomeAccepted:
					accepted.Inc()
				case outcomeRejected:
					rejected.Inc()
				case outcomeMalformed:
					malformed.Inc()
				}
			}
		}()
	}
	for i := range bundles {
		work <- &bundles[i]
	}
	close(work)
	wg.Wait()

	return BatchResult{
		Accepted:  accepted.Load(),
		Rejected:  rejected.Load(),
		Malformed: malformed.Load(),
	}, nil
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeRejected
	outcomeMalformed
)

func (bv *BatchVerifier) processOne(leader, helper *server.Server, bundle *Bundle) outcome {
	leaderInst, err := leader.Receive(bundle.LeaderPacket)
	if err != nil {
		return outcomeMalformed
	}
	helperInst, err := helper.Receive(bundle.HelperPacket)
	if err != nil {
		return outcomeMalformed
	}

	seed := crypto.DeriveChallengeSeed(bv.sharedKey, bundle.Nonce)
	leaderShare, err := leader.Verify(leaderInst, seed)
	if err != nil {
		return outcomeMalformed
	}
	helperShare, err := helper.Verify(helperInst, seed)
	if err != nil {
		return outcomeMalformed
	}

	accept := bv.config.CombineVerificationShares(leaderShare, helperShare)
	if leaderInst.RecordDecision(accept) != nil || helperInst.RecordDecision(accept) != nil {
		return outcomeMalformed
	}
	if !accept {
		return outcomeRejected
	}
	if leader.Aggregate(leaderInst) != nil || helper.Aggregate(helperInst) != nil {
		return outcomeMalformed
	}
	return outcomeAccepted
}
