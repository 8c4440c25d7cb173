// Package upstreamtest serves canned randomuser, countrylayer, exchangerate and
// newsapi responses from one httptest server.
package upstreamtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Upstream names accepted by Fail.
const (
	People    = "people"
	Countries = "countries"
	Rates     = "rates"
	News      = "news"
)

// APIKey is the key every fake endpoint expects.
const APIKey = "test-key"

const personJSON = `{"results":[{"gender":"female",
"name":{"title":"Mrs","first":"Louise","last":"Martin"},
"location":{"street":{"number":12,"name":"Rue de la Paix"},"city":"Lyon","country":"France"},
"dob":{"date":"1990-03-14T08:12:45.123Z","age":34},
"picture":{"large":"https://randomuser.me/api/portraits/women/12.jpg"}}],
"info":{"seed":"abc","results":1,"page":1,"version":"1.4"}}`

const countryJSON = `[{"name":"France","capital":"Paris",
"languages":[{"iso639_1":"fr","name":"French"}],
"currencies":[{"code":"EUR","name":"Euro","symbol":"€"}],
"flag":"https://flags.example/fr.svg"}]`

const ratesJSON = `{"result":"success","base_code":"EUR","conversion_rates":{"EUR":1,"USD":1.08,"KZT":495.2}}`

// Fake is a single server impersonating all four upstreams.
type Fake struct {
	Server *httptest.Server

	mu       sync.Mutex
	failing  map[string]bool
	hits     map[string]int
	articles int
}

// New starts a fake that answers with the France scenario and three articles.
func New(t testing.TB) *Fake {
	t.Helper()
	f := &Fake{
		failing:  map[string]bool{},
		hits:     map[string]int{},
		articles: 3,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/", f.serve(People, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, personJSON)
	}))
	r.HandleFunc("/v2/name/{name}", f.serve(Countries, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_key") != APIKey {
			fmt.Fprint(w, `{"success":false,"error":{"code":101,"type":"invalid_access_key"}}`)
			return
		}
		if !strings.EqualFold(mux.Vars(r)["name"], "France") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status":404,"message":"Not Found"}`)
			return
		}
		fmt.Fprint(w, countryJSON)
	}))
	r.HandleFunc("/v6/{key}/latest/{code}", f.serve(Rates, func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["key"] != APIKey {
			fmt.Fprint(w, `{"result":"error","error-type":"invalid-key"}`)
			return
		}
		fmt.Fprint(w, ratesJSON)
	}))
	r.HandleFunc("/v2/everything", f.serve(News, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != APIKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`)
			return
		}
		fmt.Fprint(w, f.newsJSON())
	}))

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL for every upstream.
func (f *Fake) URL() string {
	return f.Server.URL
}

// Fail makes the named upstream answer 503 until Reset.
func (f *Fake) Fail(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range names {
		f.failing[name] = true
	}
}

// SetArticles changes how many articles the news endpoint returns.
func (f *Fake) SetArticles(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles = n
}

// Reset clears failures and hit counts.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = map[string]bool{}
	f.hits = map[string]int{}
	f.articles = 3
}

// Hits returns how many requests the named upstream received.
func (f *Fake) Hits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[name]
}

// Setenv points every base URL at the fake and sets valid API keys.
func (f *Fake) Setenv(t testing.TB) {
	t.Helper()
	for _, key := range []string{"RANDOMUSER_BASE_URL", "COUNTRYLAYER_BASE_URL", "EXCHANGERATE_BASE_URL", "NEWSAPI_BASE_URL"} {
		t.Setenv(key, f.URL())
	}
	for _, key := range []string{"COUNTRYLAYER_API_KEY", "EXCHANGERATE_API_KEY", "NEWSAPI_KEY"} {
		t.Setenv(key, APIKey)
	}
}

func (f *Fake) serve(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[name]++
		failing := f.failing[name]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"message":"unavailable"}`)
			return
		}
		next(w, r)
	}
}

func (f *Fake) newsJSON() string {
	f.mu.Lock()
	n := f.articles
	f.mu.Unlock()

	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"source":{"name":"Wire"},"title":"France story %d","description":"Details %d","url":"https://news.example/%d","urlToImage":"https://news.example/%d.jpg"}`, i+1, i+1, i+1, i+1)
	}
	return fmt.Sprintf(`{"status":"ok","totalResults":%d,"articles":[%s]}`, n, strings.Join(parts, ","))
}
