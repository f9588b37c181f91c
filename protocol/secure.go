package protocol

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// PublicKeySize is the length of the X25519 keys exchanged during
// negotiation.
const PublicKeySize = 32

const nonceSize = 24

var (
	ErrCiphertextShort = errors.New("sealed frame shorter than nonce and overhead")
	ErrOpenFailed      = errors.New("sealed frame failed to authenticate")
)

// GenerateKeyPair creates a fresh X25519 key pair for one negotiation.
func GenerateKeyPair() (publicKey, privateKey *[32]byte, err error) {
	publicKey, privateKey, err = box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key pair: %w", err)
	}
	return publicKey, privateKey, nil
}

// SecureChannel seals and opens frame payloads once a connection has
// negotiated encryption. One channel belongs to exactly one connection;
// a reconnect throws it away.
type SecureChannel struct {
	shared [32]byte
}

// NewSecureChannel derives the shared key from the peer's public key and
// our private key.
func NewSecureChannel(peerPublic, ourPrivate *[32]byte) *SecureChannel {
	ch := &SecureChannel{}
	box.Precompute(&ch.shared, peerPublic, ourPrivate)
	return ch
}

// Seal encrypts a frame payload. The random nonce is prepended so Open on
// the other side needs no out-of-band state.
func (c *SecureChannel) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("seal frame: %w", err)
	}

	return box.SealAfterPrecomputation(nonce[:], plaintext, &nonce, &c.shared), nil
}

// Open decrypts a sealed frame payload produced by the peer's Seal.
func (c *SecureChannel) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+box.Overhead {
		return nil, ErrCiphertextShort
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := box.OpenAfterPrecomputation(nil, sealed[nonceSize:], &nonce, &c.shared)
	if !ok {
		return nil, ErrOpenFailed
	}

	return plaintext, nil
}
