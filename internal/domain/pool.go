package domain

import "time"

// PoolState is an immutable point-in-time snapshot of on-chain pool liquidity
// used as pricing input. Reserve values are kept as integer-like strings to
// preserve full precision. Never mutated after creation; many trades may
// reference the same snapshot.
// Corresponds to pool_states table in PostgreSQL.
type PoolState struct {
	ID            int64     // SERIAL primary key, assigned on insert
	PoolAddress   string    // pool account address
	LpSupply      string    // LP token supply, raw units
	TokenABalance string    // token A reserve, raw units
	TokenBBalance string    // token B reserve, raw units
	Timestamp     time.Time // observation time
}
