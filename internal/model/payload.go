package model

// Payload is the combined document returned by /api/random-user.
type Payload struct {
	User          Person        `json:"user"`
	Country       CountryInfo   `json:"country"`
	ExchangeRates ExchangeRates `json:"exchangeRates"`
	News          []NewsArticle `json:"news"`
}

// FallbackPayload is the payload produced when every upstream fails.
func FallbackPayload() Payload {
	return Payload{
		User:          FallbackPerson(),
		Country:       FallbackCountry(NoInfo),
		ExchangeRates: FallbackRates(),
		News:          []NewsArticle{NoNewsPlaceholder()},
	}
}
