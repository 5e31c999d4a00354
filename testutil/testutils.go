// Package testutil provides fixtures for exercising the full protocol in
// tests: configurations, server pairs, and ready-made client submissions.
// Helpers panic on fixture-construction failures rather than returning
// errors; a broken fixture is a test bug.
package testutil

import (
	"fmt"

	"github.com/abetterinternet/prio-go/client"
	"github.com/abetterinternet/prio-go/crypto"
	"github.com/abetterinternet/prio-go/protocol"
	"github.com/abetterinternet/prio-go/server"
)

// MustSumConfig returns a sum configuration or panics.
func MustSumConfig(bits int) *protocol.Config {
	config, err := protocol.NewSumConfig(bits)
	if err != nil {
		panic(err.Error())
	}
	return config
}

// MustHistogramConfig returns a histogram configuration or panics.
func MustHistogramConfig(buckets int) *protocol.Config {
	config, err := protocol.NewHistogramConfig(buckets)
	if err != nil {
		panic(err.Error())
	}
	return config
}

// GenerateTestServerPair creates a leader/helper pair for the
// configuration.
func GenerateTestServerPair(config *protocol.Config) (*server.Server, *server.Server) {
	leader, err := server.New(config, true)
	if err != nil {
		panic(err.Error())
	}
	helper, err := server.New(config, false)
	if err != nil {
		panic(err.Error())
	}
	return leader, helper
}

// GenerateTestBatchKey returns a fresh shared verification key for a test
// batch.
func GenerateTestBatchKey() crypto.SharedKey {
	seed, err := crypto.NewSeed()
	if err != nil {
		panic(err.Error())
	}
	return crypto.NewSharedKey(seed)
}

// TestSubmission is one client's contribution: the two packets plus the
// instance nonce its verification seed derives from.
type TestSubmission struct {
	LeaderPacket *protocol.ClientPacket
	HelperPacket *protocol.ClientPacket
	Nonce        []byte
}

// GenerateTestSubmission runs the real client pipeline for a value.
func GenerateTestSubmission(config *protocol.Config, value uint64, clientIndex int) *TestSubmission {
	c, err := client.New(config)
	if err != nil {
		panic(err.Error())
	}
	leaderPacket, helperPacket, err := c.EncodeAndProve(value)
	if err != nil {
		panic(err.Error())
	}
	return &TestSubmission{
		LeaderPacket: leaderPacket,
		HelperPacket: helperPacket,
		Nonce:        []byte(fmt.Sprintf("test-client-%d", clientIndex)),
	}
}

// GenerateTestSubmissions runs the client pipeline for a batch of values.
func GenerateTestSubmissions(config *protocol.Config, values []uint64) []*TestSubmission {
	out := make([]*TestSubmission, len(values))
	for i, v := range values {
		out[i] = GenerateTestSubmission(config, v, i)
	}
	return out
}
