package interfaces

import "errors"

var (
	// ErrConversationNotFound is returned when a conversation does not exist
	// or has expired. Callers cannot distinguish the two cases.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNoTickersResolved is returned when a query yields no usable tickers
	ErrNoTickersResolved = errors.New("no valid stock tickers found in query")

	// ErrSymbolNotFound is returned when the market data provider has no
	// record of the requested symbol
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrMalformedOutput is returned when an oracle response cannot be
	// parsed into the expected structure
	ErrMalformedOutput = errors.New("malformed oracle output")
)
