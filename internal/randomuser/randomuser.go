// Package randomuser fetches a random person from randomuser.me.
package randomuser

import (
	"context"
	"strconv"
	"strings"

	"github.com/bitly/go-simplejson"

	"github.com/pep299/random-user-aggregator/internal/model"
	"github.com/pep299/random-user-aggregator/internal/upstream"
)

const (
	// Name identifies this upstream in logs and errors.
	Name = "randomuser"

	DefaultBaseURL = "https://randomuser.me"
)

// Client interacts with the Random User Generator API.
type Client struct {
	upstream *upstream.Client
	BaseURL  string
}

// NewClient creates a new client. An empty baseURL selects the public API.
func NewClient(baseURL string, up *upstream.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		upstream: up,
		BaseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// FetchPerson fetches one random user and normalizes it. Absent leaves are
// replaced with their fallbacks; only transport failures and a missing results
// array are reported as errors.
func (c *Client) FetchPerson(ctx context.Context) (*model.Person, error) {
	js, err := c.upstream.GetJSON(ctx, c.BaseURL+"/api/")
	if err != nil {
		return nil, err
	}

	if upstream.Len(js, "results") < 1 {
		return nil, upstream.Malformed(Name, "missing results")
	}

	person := mapPerson(js.Get("results").GetIndex(0))
	return &person, nil
}

func mapPerson(user *simplejson.Json) model.Person {
	age := model.UnknownAge()
	if years, ok := upstream.Int(user, "dob", "age"); ok {
		age = model.KnownAge(years)
	}

	return model.Person{
		FirstName: model.ValueOr(upstream.String(user, "name", "first"), model.NoInfo),
		LastName:  model.ValueOr(upstream.String(user, "name", "last"), model.NoInfo),
		Gender:    model.ValueOr(upstream.String(user, "gender"), model.NoInfo),
		Age:       age,
		DOB:       model.ValueOr(upstream.String(user, "dob", "date"), model.NoInfo),
		Picture:   upstream.String(user, "picture", "large"),
		City:      model.ValueOr(upstream.String(user, "location", "city"), model.NoInfo),
		Country:   model.ValueOr(upstream.String(user, "location", "country"), model.NoInfo),
		Address:   formatAddress(user),
	}
}

// formatAddress renders "<street name> <street number>".
func formatAddress(user *simplejson.Json) string {
	if !upstream.Has(user, "location", "street") {
		return model.NoInfo
	}

	// API versions before 1.2 return the street as a single string.
	if street := upstream.String(user, "location", "street"); street != "" {
		return street
	}

	var parts []string
	if name := upstream.String(user, "location", "street", "name"); name != "" {
		parts = append(parts, name)
	}
	if number, ok := upstream.Int(user, "location", "street", "number"); ok {
		parts = append(parts, strconv.Itoa(number))
	}
	if len(parts) == 0 {
		return model.NoInfo
	}
	return strings.Join(parts, " ")
}
