package model

// CountryInfo is the normalized country metadata.
type CountryInfo struct {
	Name      string `json:"name"`
	Capital   string `json:"capital"`
	Languages string `json:"languages"`
	Currency  string `json:"currency"`
	Flag      string `json:"flag"`
}

// FallbackCountry returns the record used when the country lookup fails or is skipped.
// name keeps the person's country on screen when one is known.
func FallbackCountry(name string) CountryInfo {
	return CountryInfo{
		Name:      ValueOr(name, NoInfo),
		Capital:   NoInfo,
		Languages: NoInfo,
		Currency:  NoInfo,
		Flag:      "",
	}
}
