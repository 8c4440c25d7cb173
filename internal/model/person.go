package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Person is the normalized random user.
type Person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Age       Age    `json:"age"`
	DOB       string `json:"dob"`
	Picture   string `json:"picture"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Address   string `json:"address"`
}

// HasCountry reports whether the person carries a real country name.
func (p Person) HasCountry() bool {
	return !IsMarker(p.Country)
}

// FallbackPerson returns the record used when the person source fails.
func FallbackPerson() Person {
	return Person{
		FirstName: NoInfo,
		LastName:  NoInfo,
		Gender:    NoInfo,
		Age:       UnknownAge(),
		DOB:       NoInfo,
		Picture:   "",
		City:      NoInfo,
		Country:   NoInfo,
		Address:   NoInfo,
	}
}

// Age is a number of years or unknown. Unknown ages encode as the NoInfo marker.
type Age struct {
	years int
	known bool
}

// KnownAge wraps a number of years.
func KnownAge(years int) Age {
	return Age{years: years, known: true}
}

// UnknownAge returns an Age that encodes as the marker.
func UnknownAge() Age {
	return Age{}
}

// Years returns the age and whether it is known.
func (a Age) Years() (int, bool) {
	return a.years, a.known
}

func (a Age) String() string {
	if !a.known {
		return NoInfo
	}
	return fmt.Sprintf("%d", a.years)
}

// MarshalJSON encodes a known age as a number and an unknown one as the marker.
func (a Age) MarshalJSON() ([]byte, error) {
	if !a.known {
		return json.Marshal(NoInfo)
	}
	return json.Marshal(a.years)
}

// UnmarshalJSON accepts a number or any string (treated as unknown).
func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || data[0] == '"' {
		*a = UnknownAge()
		return nil
	}
	var years int
	if err := json.Unmarshal(data, &years); err != nil {
		return fmt.Errorf("decoding age: %w", err)
	}
	*a = KnownAge(years)
	return nil
}
