package model

// ExchangeRates holds the base currency and its formatted rates against USD and KZT.
type ExchangeRates struct {
	Base string `json:"base"`
	USD  string `json:"USD"`
	KZT  string `json:"KZT"`
}

// FallbackRates returns the all-marker record.
func FallbackRates() ExchangeRates {
	return ExchangeRates{
		Base: NoInfo,
		USD:  NoInfo,
		KZT:  NoInfo,
	}
}
