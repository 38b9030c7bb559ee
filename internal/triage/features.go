package triage

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Column positions in a FeatureVector. Order must match the classifier's
// training layout and never change.
const (
	featOriginBank = iota
	featOriginAccount
	featDestBank
	featDestAccount
	featAmount
	featCurrency
	featFormat
)

const (
	bankBuckets    = 1000
	accountBuckets = 100000
	accountPrefix  = "ACC"
)

var currencyCodes = map[string]float64{
	"USD": 1, "EUR": 2, "GBP": 3, "JPY": 4,
	"CHF": 5, "CAD": 6, "AUD": 7, "BTC": 8,
}

var paymentFormats = map[string]float64{
	"WIRE": 1, "ACH": 2, "CHECK": 3, "CASH": 4,
	"CRYPTO": 5, "CARD": 6, "TRANSFER": 7,
}

// EncodeFeatures maps a transaction to its feature vector. It is a pure
// function and total: unknown or missing fields degrade to defined defaults
// and never produce an error. The same transaction encodes identically
// across calls and across process restarts.
func EncodeFeatures(tx *Transaction) FeatureVector {
	var v FeatureVector
	v[featOriginBank] = encodeBank(tx.OriginBank)
	v[featOriginAccount] = encodeAccount(tx.OriginAccount)
	v[featDestBank] = encodeBank(tx.DestBank)
	v[featDestAccount] = encodeAccount(tx.DestAccount)
	v[featAmount] = tx.Amount
	v[featCurrency] = currencyCodes[strings.ToUpper(tx.Currency)]
	v[featFormat] = paymentFormats[strings.ToUpper(tx.Format)]
	return v
}

func encodeBank(name string) float64 {
	if name == "" {
		return 0
	}
	return float64(stableHash(name) % bankBuckets)
}

// encodeAccount prefers the numeric tail of structured ACC identifiers so
// related accounts stay distinguishable; anything else falls back to the
// hash path rather than failing.
func encodeAccount(account string) float64 {
	if account == "" {
		return 0
	}
	if strings.HasPrefix(account, accountPrefix) {
		if n, err := strconv.ParseUint(account[len(accountPrefix):], 10, 64); err == nil {
			return float64(n % accountBuckets)
		}
	}
	return float64(stableHash(account) % accountBuckets)
}

// stableHash is FNV-1a, chosen over the runtime's string hash because the
// encoding must be identical across processes. Collisions are acceptable.
func stableHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
