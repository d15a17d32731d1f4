package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeVirtualSignature computes a deterministic simulated transaction
// signature for a paper trade using SHA256.
// Formula: SHA256("sig0"|portfolio_id|token_in|token_out|created_at_ms) ||
// SHA256("sig1"|...), base58-encoded (64 bytes, matching the shape of a real
// Solana transaction signature).
func ComputeVirtualSignature(
	portfolioID int64,
	tokenIn string,
	tokenOut string,
	createdAtMs int64,
) string {
	data := fmt.Sprintf("%d|%s|%s|%d",
		portfolioID,
		tokenIn,
		tokenOut,
		createdAtMs,
	)

	h0 := sha256.Sum256([]byte("sig0|" + data))
	h1 := sha256.Sum256([]byte("sig1|" + data))

	sig := make([]byte, 0, 64)
	sig = append(sig, h0[:]...)
	sig = append(sig, h1[:]...)
	return base58.Encode(sig)
}
