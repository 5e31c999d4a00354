package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/abetterinternet/prio-go/crypto"
)

// ShareEncodingVersion is the version byte leading every serialized share
// vector. Decoders reject any other version.
const ShareEncodingVersion = 1

// shareHeaderSize is the version byte plus the big-endian element count.
const shareHeaderSize = 1 + 4

// maxShareElements bounds the element count a decoder will accept, so a
// corrupt length prefix cannot drive allocation. It is the largest vector
// any supported configuration produces.
const maxShareElements = 3 + 1<<20

// EncodeShare serializes a vector of field elements as a versioned,
// length-prefixed sequence of fixed-width big-endian encodings. The layout
// is plain bytes, safe to wrap in base64 for transport.
func EncodeShare(field *crypto.Field, v []crypto.Element) []byte {
	out := make([]byte, 0, shareHeaderSize+len(v)*field.ElementSize())
	out = append(out, ShareEncodingVersion)
	out = binary.BigEndian.AppendUint32(out, uint32(len(v)))
	for _, e := range v {
		out = field.AppendElement(out, e)
	}
	return out
}

// DecodeShare parses a serialized share vector, validating the version,
// the declared element count against the actual payload size, and every
// element's canonical range. Structural failures return ErrMalformedShare;
// a non-canonical element wraps crypto.ErrMalformedField.
func DecodeShare(field *crypto.Field, b []byte) ([]crypto.Element, error) {
	if len(b) < shareHeaderSize {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformedShare)
	}
	if b[0] != ShareEncodingVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrMalformedShare, b[0])
	}
	count := binary.BigEndian.Uint32(b[1:])
	if count > maxShareElements {
		return nil, fmt.Errorf("%w: element count %d too large", ErrMalformedShare, count)
	}
	body := b[shareHeaderSize:]
	size := field.ElementSize()
	if len(body) != int(count)*size {
		return nil, fmt.Errorf("%w: %d bytes for %d elements", ErrMalformedShare, len(body), count)
	}
	out := make([]crypto.Element, count)
	for i := range out {
		e, err := field.DecodeElement(body[i*size:])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

// ClientPacket is the plaintext payload a client produces for one server:
// its half of the measurement data and the proof, tagged with the encoding
// parameters so the server can validate share shape before any arithmetic.
// Packets serialize to JSON with the share blobs in base64.
type ClientPacket struct {
	Version    uint8        `json:"version"`
	Encoding   EncodingType `json:"encoding"`
	Size       int          `json:"size"`
	DataShare  []byte       `json:"data_share"`
	ProofShare []byte       `json:"proof_share"`
}

// NewClientPacket assembles the packet for one server from its share
// vectors.
func NewClientPacket(c *Config, dataShare, proofShare []crypto.Element) *ClientPacket {
	return &ClientPacket{
		Version:    ShareEncodingVersion,
		Encoding:   c.Encoding(),
		Size:       c.Size(),
		DataShare:  EncodeShare(c.Field(), dataShare),
		ProofShare: EncodeShare(c.Field(), proofShare),
	}
}

// OpenPacket validates a packet against the server's configuration and
// decodes its share vectors. A packet for a different encoding or size, or
// with share blobs of the wrong shape, fails with ErrMalformedShare.
func (c *Config) OpenPacket(p *ClientPacket) (dataShare, proofShare []crypto.Element, err error) {
	if p.Version != ShareEncodingVersion {
		return nil, nil, fmt.Errorf("%w: unknown packet version %d", ErrMalformedShare, p.Version)
	}
	if p.Encoding != c.Encoding() || p.Size != c.Size() {
		return nil, nil, fmt.Errorf("%w: packet parameters (%d, %d) do not match configuration (%d, %d)",
			ErrMalformedShare, p.Encoding, p.Size, c.Encoding(), c.Size())
	}
	dataShare, err = DecodeShare(c.Field(), p.DataShare)
	if err != nil {
		return nil, nil, fmt.Errorf("data share: %w", err)
	}
	if len(dataShare) != c.Dimension() {
		return nil, nil, fmt.Errorf("%w: data share length %d, want %d", ErrMalformedShare, len(dataShare), c.Dimension())
	}
	proofShare, err = DecodeShare(c.Field(), p.ProofShare)
	if err != nil {
		return nil, nil, fmt.Errorf("proof share: %w", err)
	}
	if len(proofShare) != c.ProofLength() {
		return nil, nil, fmt.Errorf("%w: proof share length %d, want %d", ErrMalformedShare, len(proofShare), c.ProofLength())
	}
	return dataShare, proofShare, nil
}

// UnmarshalMessage deserializes a message from JSON bytes.
func UnmarshalMessage[T any](data []byte) (*T, error) {
	var msg T
	err := json.Unmarshal(data, &msg)
	return &msg, err
}

// DecodeMessage deserializes a message from a JSON reader.
func DecodeMessage[T any](reader io.Reader) (*T, error) {
	var msg T
	err := json.NewDecoder(reader).Decode(&msg)
	return &msg, err
}

// SerializeMessage serializes a message to JSON bytes.
func SerializeMessage[T any](msg *T) ([]byte, error) {
	return json.Marshal(msg)
}
