package signature

import (
	"crypto/ed25519"
	"crypto/rand"
)

// NewEd25519Keypair returns a fresh (public, private) signing pair for a node
// identity.
func NewEd25519Keypair() ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// ED25519Sign signs message with a private key in the byte form the node
// directory stores.
func ED25519Sign(privKeyBytes []byte, message []byte) []byte {
	privKey := ed25519.PrivateKey(privKeyBytes)
	return ed25519.Sign(privKey, message)
}

// ED25519Verify reports whether signature is valid for message under the
// given public key bytes.
func ED25519Verify(pubKeyBytes []byte, message []byte, signature []byte) bool {
	if len(pubKeyBytes) != ed25519.PublicKeySize {
		return false
	}
	pubKey := ed25519.PublicKey(pubKeyBytes)
	return ed25519.Verify(pubKey, message, signature)
}
