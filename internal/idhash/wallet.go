package idhash

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidWalletAddress reports whether addr is a plausible Solana wallet
// address: base58-encoded 32 bytes that decode to a point on the ed25519
// curve. Program derived addresses are off-curve and rejected here since a
// wallet is always a keypair account.
func ValidWalletAddress(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return false
	}
	if len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
