package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOr(t *testing.T) {
	tests := []struct {
		value    string
		fallback string
		expected string
	}{
		{"Paris", NoInfo, "Paris"},
		{"", NoInfo, NoInfo},
		{"   ", "#", "#"},
		{"", "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValueOr(tt.value, tt.fallback), "ValueOr(%q, %q)", tt.value, tt.fallback)
	}
}

func TestAgeJSON(t *testing.T) {
	data, err := json.Marshal(KnownAge(42))
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(data))

	data, err = json.Marshal(UnknownAge())
	require.NoError(t, err)
	assert.JSONEq(t, `"No info available"`, string(data))

	var age Age
	require.NoError(t, json.Unmarshal([]byte(`0`), &age))
	years, known := age.Years()
	assert.True(t, known, "zero is a real age")
	assert.Equal(t, 0, years)

	require.NoError(t, json.Unmarshal([]byte(`"No info available"`), &age))
	_, known = age.Years()
	assert.False(t, known)
}

func TestPersonHasCountry(t *testing.T) {
	assert.True(t, Person{Country: "France"}.HasCountry())
	assert.False(t, Person{Country: NoInfo}.HasCountry())
	assert.False(t, Person{}.HasCountry())
	assert.False(t, FallbackPerson().HasCountry())
}

func TestFallbackCountry(t *testing.T) {
	c := FallbackCountry("Norway")
	assert.Equal(t, "Norway", c.Name)
	assert.Equal(t, NoInfo, c.Capital)
	assert.Equal(t, NoInfo, c.Languages)
	assert.Equal(t, NoInfo, c.Currency)
	assert.Equal(t, "", c.Flag)

	assert.Equal(t, NoInfo, FallbackCountry("").Name)
}

func TestTruncateNews(t *testing.T) {
	articles := make([]NewsArticle, 8)
	for i := range articles {
		articles[i] = NewsArticle{Title: string(rune('a' + i))}
	}

	truncated := TruncateNews(articles, 5)
	require.Len(t, truncated, 5)
	for i, article := range truncated {
		assert.Equal(t, articles[i].Title, article.Title)
	}

	assert.Len(t, TruncateNews(articles[:3], 5), 3)
	assert.Len(t, TruncateNews(articles, -1), 8)
}

func TestFallbackPayloadShape(t *testing.T) {
	data, err := json.Marshal(FallbackPayload())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	user := decoded["user"].(map[string]interface{})
	for _, field := range []string{"firstName", "lastName", "gender", "age", "dob", "picture", "city", "country", "address"} {
		assert.Contains(t, user, field)
	}
	assert.Equal(t, NoInfo, user["age"])

	rates := decoded["exchangeRates"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"base": NoInfo, "USD": NoInfo, "KZT": NoInfo}, rates)

	news := decoded["news"].([]interface{})
	require.Len(t, news, 1)
	assert.Equal(t, map[string]interface{}{"title": NoNews, "description": "", "url": "", "image": ""}, news[0])
}
