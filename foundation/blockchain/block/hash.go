package block

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// HashFunc produces a lower case hex encoded digest of the data.
type HashFunc func(data []byte) string

// SHA256 is the default hash function for blocks.
func SHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keccak256 hashes the data the way Ethereum does.
func Keccak256(data []byte) string {
	return hex.EncodeToString(crypto.Keccak256(data))
}

// HashFuncByName returns the hash function for the specified name.
func HashFuncByName(name string) (HashFunc, bool) {
	switch name {
	case "sha256", "":
		return SHA256, true
	case "keccak256":
		return Keccak256, true
	}

	return nil, false
}
