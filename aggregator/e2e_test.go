package aggregator

import (
	"testing"

	"github.com/abetterinternet/prio-go/client"
	"github.com/abetterinternet/prio-go/crypto"
	"github.com/abetterinternet/prio-go/protocol"
	"github.com/abetterinternet/prio-go/testutil"
	"github.com/stretchr/testify/require"
)

// TestEndToEndSealedSum runs the whole pipeline the way a deployment
// would: clients seal payloads to each server's KEM key, servers open and
// verify them, the combiner decides, and the batch statistic is
// reconstructed from the two aggregate shares.
func TestEndToEndSealedSum(t *testing.T) {
	config := testutil.MustSumConfig(12)
	leader, helper := testutil.GenerateTestServerPair(config)
	batchKey := testutil.GenerateTestBatchKey()

	leaderPub, leaderPriv, err := crypto.GenerateKemKeyPair()
	require.NoError(t, err)
	helperPub, helperPriv, err := crypto.GenerateKemKeyPair()
	require.NoError(t, err)

	values := []uint64{1, 2, 3, 500, 4000}
	var want uint64
	for i, v := range values {
		want += v

		c, err := client.New(config)
		require.NoError(t, err)
		leaderBlob, helperBlob, err := c.SealedPayloads(v, leaderPub, helperPub)
		require.NoError(t, err)

		leaderInst, err := leader.ReceiveSealed(leaderBlob, leaderPriv)
		require.NoError(t, err)
		helperInst, err := helper.ReceiveSealed(helperBlob, helperPriv)
		require.NoError(t, err)

		nonce := []byte{byte(i)}
		seed := crypto.DeriveChallengeSeed(batchKey, nonce)
		leaderShare, err := leader.Verify(leaderInst, seed)
		require.NoError(t, err)
		helperShare, err := helper.Verify(helperInst, seed)
		require.NoError(t, err)

		accept := CombineVerificationShares(config, leaderShare, helperShare)
		require.True(t, accept)
		require.NoError(t, leaderInst.RecordDecision(accept))
		require.NoError(t, helperInst.RecordDecision(accept))
		require.NoError(t, leader.Aggregate(leaderInst))
		require.NoError(t, helper.Aggregate(helperInst))
	}

	got, err := ReconstructTotal(config, leader.TotalShare(), helper.TotalShare())
	require.NoError(t, err)
	require.Equal(t, []uint64{want}, got)
	require.Equal(t, uint64(len(values)), leader.AggregatedCount())
	require.Equal(t, uint64(len(values)), helper.AggregatedCount())
}

// TestEndToEndBatchHistogram drives a larger histogram batch through the
// parallel verifier using the shared fixtures.
func TestEndToEndBatchHistogram(t *testing.T) {
	config := testutil.MustHistogramConfig(8)
	leader, helper := testutil.GenerateTestServerPair(config)

	values := make([]uint64, 64)
	wantCounts := make([]uint64, 8)
	for i := range values {
		values[i] = uint64(i % 8)
		wantCounts[i%8]++
	}
	submissions := testutil.GenerateTestSubmissions(config, values)

	bundles := make([]Bundle, len(submissions))
	for i, sub := range submissions {
		bundles[i] = Bundle{
			LeaderPacket: sub.LeaderPacket,
			HelperPacket: sub.HelperPacket,
			Nonce:        sub.Nonce,
		}
	}

	bv, err := NewBatchVerifier(config, testutil.GenerateTestBatchKey(), 8)
	require.NoError(t, err)
	result, err := bv.Run(leader, helper, bundles)
	require.NoError(t, err)
	require.Equal(t, BatchResult{Accepted: uint64(len(values))}, result)

	got, err := ReconstructTotal(config, leader.TotalShare(), helper.TotalShare())
	require.NoError(t, err)
	require.Equal(t, wantCounts, got)
}

// TestEndToEndScenarioFromDesign pins the two canonical scenarios: the
// 4-bit value 7 accepted and aggregated to 7, and one-hot category 2 of 5
// rejected after a single-bit flip in one data share.
func TestEndToEndScenarioFromDesign(t *testing.T) {
	sumConfig := testutil.MustSumConfig(4)
	leader, helper := testutil.GenerateTestServerPair(sumConfig)
	batchKey := testutil.GenerateTestBatchKey()

	sub := testutil.GenerateTestSubmission(sumConfig, 7, 0)
	data, _, err := sumConfig.OpenPacket(sub.LeaderPacket)
	require.NoError(t, err)
	helperData, _, err := sumConfig.OpenPacket(sub.HelperPacket)
	require.NoError(t, err)
	bits, err := sumConfig.Field().ReconstructShares(data, helperData)
	require.NoError(t, err)
	require.Equal(t, []crypto.Element{1, 1, 1, 0}, bits)

	bv, err := NewBatchVerifier(sumConfig, batchKey, 1)
	require.NoError(t, err)
	result, err := bv.Run(leader, helper, []Bundle{{
		LeaderPacket: sub.LeaderPacket,
		HelperPacket: sub.HelperPacket,
		Nonce:        sub.Nonce,
	}})
	require.NoError(t, err)
	require.Equal(t, BatchResult{Accepted: 1}, result)

	total, err := ReconstructTotal(sumConfig, leader.TotalShare(), helper.TotalShare())
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, total)

	histConfig := testutil.MustHistogramConfig(5)
	hLeader, hHelper := testutil.GenerateTestServerPair(histConfig)
	hSub := testutil.GenerateTestSubmission(histConfig, 2, 0)

	flipped, proof, err := histConfig.OpenPacket(hSub.LeaderPacket)
	require.NoError(t, err)
	flipped[4] = histConfig.Field().Add(flipped[4], 1)
	hSub.LeaderPacket = protocol.NewClientPacket(histConfig, flipped, proof)

	hbv, err := NewBatchVerifier(histConfig, batchKey, 1)
	require.NoError(t, err)
	hResult, err := hbv.Run(hLeader, hHelper, []Bundle{{
		LeaderPacket: hSub.LeaderPacket,
		HelperPacket: hSub.HelperPacket,
		Nonce:        hSub.Nonce,
	}})
	require.NoError(t, err)
	require.Equal(t, BatchResult{Rejected: 1}, hResult)
	require.Equal(t, uint64(0), hLeader.AggregatedCount())
}
