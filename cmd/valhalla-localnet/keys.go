package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// loadOrCreateKey reads a JSON byte array key file as written by
// solana-keygen. A new key is written to path if it doesn't exist.
func loadOrCreateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return createKey(path)
	} else if err != nil {
		return nil, errors.Wrap(err, "error reading key file")
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(err, "key file is not a json byte array")
	}

	key := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid byte %d at index %d", v, i)
		}
		key[i] = byte(v)
	}

	switch len(key) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	case ed25519.PrivateKeySize:
		derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
		if !derived.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(key[ed25519.SeedSize:])) {
			return nil, errors.New("key file public key does not match seed")
		}
		return derived, nil
	default:
		return nil, errors.Errorf("invalid key length %d", len(key))
	}
}

func createKey(path string) (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, errors.Wrap(err, "error writing key file")
	}
	return key, nil
}
