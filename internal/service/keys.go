package service

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// Keypair wraps a secp256k1 private key for custody wallets.
type Keypair struct {
	key *secp256k1.PrivateKey
}

// GenerateKeypair creates a new random secp256k1 keypair.
func GenerateKeypair() (*Keypair, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Keypair{key: key}, nil
}

// KeypairFromBytes restores a keypair from a 32-byte secret.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return &Keypair{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// PrivateBytes returns the 32-byte private key scalar.
func (k *Keypair) PrivateBytes() []byte {
	return k.key.Serialize()
}

// PublicKeyHex returns the uncompressed 65-byte public key, hex encoded.
func (k *Keypair) PublicKeyHex() string {
	return hex.EncodeToString(k.key.PubKey().SerializeUncompressed())
}

// Address derives the chain address: keccak256 of the uncompressed public
// key (without the 0x04 prefix byte), last 20 bytes, 0x-prefixed lowercase.
func (k *Keypair) Address() string {
	pub := k.key.PubKey().SerializeUncompressed()
	digest := keccak256(pub[1:])
	return "0x" + hex.EncodeToString(digest[12:])
}

// Zero securely zeroes the private key memory.
func (k *Keypair) Zero() {
	k.key.Zero()
}

// SignMessage produces a deterministic (RFC6979) ECDSA signature over
// keccak256(message). Identical (key, message) pairs always yield identical
// signatures; there is no added randomness.
func SignMessage(privKey []byte, message string) (string, error) {
	kp, err := KeypairFromBytes(privKey)
	if err != nil {
		return "", err
	}
	defer kp.Zero()

	digest := keccak256([]byte(message))
	sig := ecdsa.Sign(kp.key, digest)
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifyMessage checks a signature produced by SignMessage against an
// uncompressed hex public key. Returns false on any parse error.
func VerifyMessage(publicKeyHex, message, signatureHex string) bool {
	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}
	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}
	return sig.Verify(keccak256([]byte(message)), pub)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
