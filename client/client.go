// Package client implements the measurement submission side of the
// protocol: encoding an application value, proving its validity, and
// splitting data and proof into one opaque payload per aggregation server.
package client

import (
	"errors"
	"fmt"

	"github.com/abetterinternet/prio-go/crypto"
	"github.com/abetterinternet/prio-go/protocol"
)

// Client prepares measurement submissions for one encoding configuration.
// A Client is stateless between submissions apart from its configuration;
// every submission draws fresh masking randomness from the operating
// system, independent of the servers' shared verification seed.
type Client struct {
	config *protocol.Config
}

// New creates a client for the given configuration.
func New(config *protocol.Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	return &Client{config: config}, nil
}

// Config returns the client's configuration.
func (c *Client) Config() *protocol.Config {
	return c.config
}

// EncodeAndProve encodes the application value, builds its validity proof
// and additively splits both vectors into two packets, one per server.
// Each packet alone is uniformly random; only the component-wise sum of the
// two reveals anything.
//
// On any failure (a value out of range for the encoding, an unsupported
// transform size) no packet is emitted at all.
func (c *Client) EncodeAndProve(value uint64) (leader, helper *protocol.ClientPacket, err error) {
	data, err := c.config.EncodeMeasurement(value)
	if err != nil {
		return nil, nil, err
	}

	gen, err := crypto.NewRandomGenerator(c.config.Field())
	if err != nil {
		return nil, nil, fmt.Errorf("masking generator: %w", err)
	}

	proof, err := c.config.BuildProof(data, gen)
	if err != nil {
		return nil, nil, fmt.Errorf("build proof: %w", err)
	}

	dataLeader, dataHelper, err := gen.SplitVector(data)
	if err != nil {
		return nil, nil, fmt.Errorf("split data: %w", err)
	}
	proofLeader, proofHelper, err := gen.SplitVector(proof)
	if err != nil {
		return nil, nil, fmt.Errorf("split proof: %w", err)
	}

	return protocol.NewClientPacket(c.config, dataLeader, proofLeader),
		protocol.NewClientPacket(c.config, dataHelper, proofHelper), nil
}

// SealedPayloads runs EncodeAndProve and seals each packet to its server's
// KEM public key, so the transport layer only ever carries ciphertext. The
// returned blobs are JSON-encoded sealed payloads, ready for delivery to
// the leader and helper respectively.
func (c *Client) SealedPayloads(value uint64, leaderKey, helperKey crypto.KemPublicKey) (leaderBlob, helperBlob []byte, err error) {
	leaderPacket, helperPacket, err := c.EncodeAndProve(value)
	if err != nil {
		return nil, nil, err
	}

	leaderBlob, err = sealPacket(leaderPacket, leaderKey)
	if err != nil {
		return nil, nil, fmt.Errorf("seal leader payload: %w", err)
	}
	helperBlob, err = sealPacket(helperPacket, helperKey)
	if err != nil {
		return nil, nil, fmt.Errorf("seal helper payload: %w", err)
	}
	return leaderBlob, helperBlob, nil
}

func sealPacket(packet *protocol.ClientPacket, key crypto.KemPublicKey) ([]byte, error) {
	plaintext, err := protocol.SerializeMessage(packet)
	if err != nil {
		return nil, err
	}
	sealed, err := crypto.Seal(key, plaintext)
	if err != nil {
		return nil, err
	}
	return protocol.SerializeMessage(sealed)
}
