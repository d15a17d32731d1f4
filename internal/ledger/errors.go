package ledger

import "errors"

// Ledger errors.
var (
	// ErrInsufficientFunds is returned when a portfolio balance cannot
	// cover the requested trade plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidStateTransition is returned when a settle or cancel is
	// attempted on a trade whose status does not permit it.
	ErrInvalidStateTransition = errors.New("invalid trade state transition")

	// ErrInvalidWallet is returned when a wallet address fails validation.
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrUnknownToken is returned when a trade references a token that is
	// not one of the portfolio's two balance sides.
	ErrUnknownToken = errors.New("token not tracked by portfolio")
)
