package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKemKeyPair()
	require.NoError(t, err)

	plaintext := []byte("data share bytes plus proof share bytes")
	sealed, err := Seal(pub, plaintext)
	require.NoError(t, err)
	require.Len(t, sealed.EphemeralPublicKey, 32)
	require.NotEqual(t, plaintext, sealed.Ciphertext)

	got, err := Open(priv, sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestOpenRejectsTampering(t *testing.T) {
	pub, priv, err := GenerateKemKeyPair()
	require.NoError(t, err)

	sealed, err := Seal(pub, []byte("payload"))
	require.NoError(t, err)

	sealed.Ciphertext[0] ^= 0x01
	_, err = Open(priv, sealed)
	require.Error(t, err)
	sealed.Ciphertext[0] ^= 0x01

	sealed.Nonce[0] ^= 0x01
	_, err = Open(priv, sealed)
	require.Error(t, err)
	sealed.Nonce[0] ^= 0x01

	sealed.EphemeralPublicKey[0] ^= 0x01
	_, err = Open(priv, sealed)
	require.Error(t, err)
}

func TestOpenRejectsWrongRecipient(t *testing.T) {
	pub, _, err := GenerateKemKeyPair()
	require.NoError(t, err)
	_, otherPriv, err := GenerateKemKeyPair()
	require.NoError(t, err)

	sealed, err := Seal(pub, []byte("payload"))
	require.NoError(t, err)

	_, err = Open(otherPriv, sealed)
	require.Error(t, err)
}

func TestDeriveSharedSecretAgreement(t *testing.T) {
	pubA, privA, err := GenerateKemKeyPair()
	require.NoError(t, err)
	pubB, privB, err := GenerateKemKeyPair()
	require.NoError(t, err)

	info := []byte("verification seed agreement")
	sAB, err := DeriveSharedSecret(privA, pubB, info)
	require.NoError(t, err)
	sBA, err := DeriveSharedSecret(privB, pubA, info)
	require.NoError(t, err)
	require.Equal(t, sAB.Bytes(), sBA.Bytes())

	sOther, err := DeriveSharedSecret(privA, pubB, []byte("other context"))
	require.NoError(t, err)
	require.NotEqual(t, sAB.Bytes(), sOther.Bytes())
}
