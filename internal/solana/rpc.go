// Package solana provides minimal Solana RPC and WebSocket clients for
// observing pool accounts.
package solana

import "context"

// RPCClient defines the Solana JSON-RPC surface the engine depends on.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenAccountBalance retrieves the raw token balance of an SPL
	// token account.
	GetTokenAccountBalance(ctx context.Context, pubkey string) (*TokenAmount, error)

	// GetTokenSupply retrieves the raw total supply of an SPL token mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// TokenAmount is an SPL token balance in raw units.
type TokenAmount struct {
	Amount   string `json:"amount"` // raw integer string
	Decimals int    `json:"decimals"`
}
