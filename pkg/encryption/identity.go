// Package encryption manages the node's network identity key.
package encryption

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// ErrInvalidKeyFile is returned when a key file holds neither a raw seed,
// a hex seed, nor a serialized libp2p key.
var ErrInvalidKeyFile = errors.New("invalid node key file")

type IdentityInfo struct {
	PrivateKey crypto.PrivKey
	PublicKey  crypto.PubKey
	PeerID     peer.ID
}

func GenerateIdentity() (*IdentityInfo, error) {
	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 2048, rand.Reader)
	if err != nil {
		return nil, err
	}
	return identityFromKey(priv)
}

// IdentityFromSeed derives the identity for a 32-byte ed25519 seed.
func IdentityFromSeed(seed []byte) (*IdentityInfo, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrInvalidKeyFile, len(seed))
	}
	priv, err := crypto.UnmarshalEd25519PrivateKey(ed25519.NewKeyFromSeed(seed))
	if err != nil {
		return nil, err
	}
	return identityFromKey(priv)
}

// Seed returns the 32-byte secret seed of an ed25519 identity.
func (i *IdentityInfo) Seed() ([]byte, error) {
	if i.PrivateKey.Type() != crypto.Ed25519 {
		return nil, fmt.Errorf("node key is not ed25519")
	}
	raw, err := i.PrivateKey.Raw()
	if err != nil {
		return nil, err
	}
	return raw[:ed25519.SeedSize], nil
}

// SaveIdentity writes the raw secret seed to path, readable by the owner only.
func SaveIdentity(identity *IdentityInfo, path string) error {
	seed, err := identity.Seed()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	return os.WriteFile(path, seed, 0600)
}

// LoadIdentity reads a key file holding a raw 32-byte seed, a hex-encoded
// seed, or a serialized libp2p private key.
func LoadIdentity(path string) (*IdentityInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) == ed25519.SeedSize {
		return IdentityFromSeed(data)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 2*ed25519.SeedSize {
		if seed, err := hex.DecodeString(string(trimmed)); err == nil {
			return IdentityFromSeed(seed)
		}
	}

	priv, err := crypto.UnmarshalPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKeyFile, path, err)
	}
	if priv.Type() != crypto.Ed25519 {
		return nil, fmt.Errorf("%w: %s: key type %s", ErrInvalidKeyFile, path, priv.Type())
	}
	return identityFromKey(priv)
}

// LoadOrCreateIdentity loads the key at path, generating and saving a new one
// on first start. The second return value reports whether a key was created.
func LoadOrCreateIdentity(path string) (*IdentityInfo, bool, error) {
	identity, err := LoadIdentity(path)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	identity, err = GenerateIdentity()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate node key: %w", err)
	}
	if err := SaveIdentity(identity, path); err != nil {
		return nil, false, fmt.Errorf("failed to save node key: %w", err)
	}
	return identity, true, nil
}

func identityFromKey(priv crypto.PrivKey) (*IdentityInfo, error) {
	pub := priv.GetPublic()
	peerID, err := peer.IDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	return &IdentityInfo{
		PrivateKey: priv,
		PublicKey:  pub,
		PeerID:     peerID,
	}, nil
}
