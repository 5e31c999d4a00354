package aggregator

import (
	"fmt"
	"testing"

	"github.com/abetterinternet/prio-go/client"
	"github.com/abetterinternet/prio-go/crypto"
	"github.com/abetterinternet/prio-go/protocol"
	"github.com/abetterinternet/prio-go/server"
	"github.com/stretchr/testify/require"
)

func batchKey() crypto.SharedKey {
	return crypto.NewSharedKey([]byte("aggregator batch key"))
}

func newServers(t *testing.T, config *protocol.Config) (*server.Server, *server.Server) {
	t.Helper()
	leader, err := server.New(config, true)
	require.NoError(t, err)
	helper, err := server.New(config, false)
	require.NoError(t, err)
	return leader, helper
}

func bundleFor(t *testing.T, config *protocol.Config, value uint64, nonce string) Bundle {
	t.Helper()
	c, err := client.New(config)
	require.NoError(t, err)
	leaderPacket, helperPacket, err := c.EncodeAndProve(value)
	require.NoError(t, err)
	return Bundle{
		LeaderPacket: leaderPacket,
		HelperPacket: helperPacket,
		Nonce:        []byte(nonce),
	}
}

func TestBatchSumAggregation(t *testing.T) {
	config, err := protocol.NewSumConfig(8)
	require.NoError(t, err)
	leader, helper := newServers(t, config)

	values := []uint64{0, 1, 7, 100, 255, 13, 13}
	var want uint64
	bundles := make([]Bundle, len(values))
	for i, v := range values {
		bundles[i] = bundleFor(t, config, v, fmt.Sprintf("client-%d", i))
		want += v
	}

	bv, err := NewBatchVerifier(config, batchKey(), 4)
	require.NoError(t, err)
	result, err := bv.Run(leader, helper, bundles)
	require.NoError(t, err)
	require.Equal(t, BatchResult{Accepted: uint64(len(values))}, result)

	got, err := ReconstructTotal(config, leader.TotalShare(), helper.TotalShare())
	require.NoError(t, err)
	require.Equal(t, []uint64{want}, got)
}

func TestBatchHistogramAggregation(t *testing.T) {
	config, err := protocol.NewHistogramConfig(5)
	require.NoError(t, err)
	leader, helper := newServers(t, config)

	categories := []uint64{2, 2, 0, 4, 2}
	bundles := make([]Bundle, len(categories))
	for i, cat := range categories {
		bundles[i] = bundleFor(t, config, cat, fmt.Sprintf("client-%d", i))
	}

	bv, err := NewBatchVerifier(config, batchKey(), 0)
	require.NoError(t, err)
	result, err := bv.Run(leader, helper, bundles)
	require.NoError(t, err)
	require.Equal(t, uint64(len(categories)), result.Accepted)

	got, err := ReconstructTotal(config, leader.TotalShare(), helper.TotalShare())
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 0, 3, 0, 1}, got)
}

func TestBatchRejectsTamperedClient(t *testing.T) {
	config, err := protocol.NewHistogramConfig(5)
	require.NoError(t, err)
	leader, helper := newServers(t, config)

	good := bundleFor(t, config, 1, "good")
	bad := bundleFor(t, config, 2, "bad")

	// Flip one coordinate of the bad client's leader data share without
	// touching its proof.
	data, proof, err := config.OpenPacket(bad.LeaderPacket)
	require.NoError(t, err)
	data[3] = config.Field().Add(data[3], 1)
	bad.LeaderPacket = protocol.NewClientPacket(config, data, proof)

	bv, err := NewBatchVerifier(config, batchKey(), 2)
	require.NoError(t, err)
	result, err := bv.Run(leader, helper, []Bundle{good, bad})
	require.NoError(t, err)
	require.Equal(t, BatchResult{Accepted: 1, Rejected: 1}, result)

	// Only the good client's category shows up.
	got, err := ReconstructTotal(config, leader.TotalShare(), helper.TotalShare())
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1, 0, 0, 0}, got)
}

func TestBatchCountsMalformedPackets(t *testing.T) {
	config, err := protocol.NewSumConfig(4)
	require.NoError(t, err)
	other, err := protocol.NewSumConfig(8)
	require.NoError(t, err)
	leader, helper := newServers(t, config)

	good := bundleFor(t, config, 3, "good")
	wrong := bundleFor(t, other, 3, "wrong-config")

	bv, err := NewBatchVerifier(config, batchKey(), 2)
	require.NoError(t, err)
	result, err := bv.Run(leader, helper, []Bundle{good, wrong})
	require.NoError(t, err)
	require.Equal(t, BatchResult{Accepted: 1, Malformed: 1}, result)
}

func TestBatchVerifierValidation(t *testing.T) {
	config, err := protocol.NewSumConfig(4)
	require.NoError(t, err)
	leader, helper := newServers(t, config)

	_, err = NewBatchVerifier(nil, batchKey(), 1)
	require.Error(t, err)
	_, err = NewBatchVerifier(config, nil, 1)
	require.Error(t, err)

	bv, err := NewBatchVerifier(config, batchKey(), 1)
	require.NoError(t, err)

	_, err = bv.Run(nil, helper, nil)
	require.Error(t, err)
	_, err = bv.Run(helper, leader, nil)
	require.Error(t, err, "swapped roles must be caught")
	_, err = bv.Run(leader, leader, nil)
	require.Error(t, err)
}

func TestCombineVerificationSharesWrapper(t *testing.T) {
	config, err := protocol.NewSumConfig(4)
	require.NoError(t, err)
	leader, helper := newServers(t, config)

	b := bundleFor(t, config, 7, "client")
	leaderInst, err := leader.Receive(b.LeaderPacket)
	require.NoError(t, err)
	helperInst, err := helper.Receive(b.HelperPacket)
	require.NoError(t, err)

	seed := crypto.DeriveChallengeSeed(batchKey(), b.Nonce)
	leaderShare, err := leader.Verify(leaderInst, seed)
	require.NoError(t, err)
	helperShare, err := helper.Verify(helperInst, seed)
	require.NoError(t, err)

	require.True(t, CombineVerificationShares(config, leaderShare, helperShare))
}
