package clientstate

import "time"

// TTL constants for cached ledger reference data.
const (
	TTLCryptoAssets = time.Hour // tradable pairs change rarely
)
