package randomuser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/random-user-aggregator/internal/model"
	"github.com/pep299/random-user-aggregator/internal/upstream"
)

const fullUser = `{"results":[{
	"gender":"female",
	"name":{"title":"Mrs","first":"Camille","last":"Roux"},
	"location":{"street":{"number":4519,"name":"Rue de L'Abbé-Groult"},"city":"Lyon","country":"France"},
	"dob":{"date":"1984-03-12T06:22:10.548Z","age":40},
	"picture":{"large":"https://randomuser.me/api/portraits/women/12.jpg"}
}],"info":{"seed":"abc","results":1,"page":1,"version":"1.4"}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	up := upstream.NewClient(upstream.Options{Name: Name, Timeout: time.Second}, logger)
	return NewClient(server.URL, up)
}

func TestFetchPerson_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/", r.URL.Path)
		fmt.Fprint(w, fullUser)
	})

	person, err := client.FetchPerson(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Camille", person.FirstName)
	assert.Equal(t, "Roux", person.LastName)
	assert.Equal(t, "female", person.Gender)
	years, known := person.Age.Years()
	assert.True(t, known)
	assert.Equal(t, 40, years)
	assert.Equal(t, "1984-03-12T06:22:10.548Z", person.DOB)
	assert.Equal(t, "https://randomuser.me/api/portraits/women/12.jpg", person.Picture)
	assert.Equal(t, "Lyon", person.City)
	assert.Equal(t, "France", person.Country)
	assert.Equal(t, "Rue de L'Abbé-Groult 4519", person.Address)
}

func TestFetchPerson_MissingLeaves(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"name":{"first":"Kenji","last":null},"location":{"country":""}}]}`)
	})

	person, err := client.FetchPerson(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Kenji", person.FirstName)
	assert.Equal(t, model.NoInfo, person.LastName)
	assert.Equal(t, model.NoInfo, person.Gender)
	_, known := person.Age.Years()
	assert.False(t, known)
	assert.Equal(t, model.NoInfo, person.DOB)
	assert.Equal(t, "", person.Picture)
	assert.Equal(t, model.NoInfo, person.City)
	assert.Equal(t, model.NoInfo, person.Country)
	assert.Equal(t, model.NoInfo, person.Address)
	assert.False(t, person.HasCountry())
}

func TestFetchPerson_LegacyStreetString(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"location":{"street":"9278 new road"}}]}`)
	})

	person, err := client.FetchPerson(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "9278 new road", person.Address)
}

func TestFetchPerson_EmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	})

	_, err := client.FetchPerson(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream.ErrMalformedResponse))
}

func TestFetchPerson_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchPerson(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream.ErrUnavailable))
	assert.Contains(t, err.Error(), "503")
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		expected string
	}{
		{"name and number", `{"location":{"street":{"name":"Main St","number":12}}}`, "Main St 12"},
		{"name only", `{"location":{"street":{"name":"Main St"}}}`, "Main St"},
		{"number only", `{"location":{"street":{"number":7}}}`, "7"},
		{"empty street object", `{"location":{"street":{}}}`, model.NoInfo},
		{"no street", `{"location":{}}`, model.NoInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"results":[%s]}`, tt.user)
			})
			person, err := client.FetchPerson(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, person.Address)
		})
	}
}
