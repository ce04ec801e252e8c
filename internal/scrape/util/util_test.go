package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString_StableAndShort(t *testing.T) {
	a := HashString("url:https://example.com/jobs/1")
	b := HashString("url:https://example.com/jobs/1")
	c := HashString("url:https://example.com/jobs/2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestCanonicalURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Jobs/1", "https://example.com/Jobs/1"},
		{"strips fragment", "https://example.com/jobs/1#apply", "https://example.com/jobs/1"},
		{"strips tracking params", "https://example.com/jobs/1?utm_source=mail&utm_campaign=x&id=9", "https://example.com/jobs/1?id=9"},
		{"strips click ids", "https://example.com/jobs/1?gclid=abc&fbclid=def", "https://example.com/jobs/1"},
		{"sorts query keys", "https://example.com/jobs?b=2&a=1", "https://example.com/jobs?a=1&b=2"},
		{"empty stays empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalURL(tc.in))
		})
	}
}

func TestCanonicalURL_EquivalentLinksConverge(t *testing.T) {
	a := CanonicalURL("https://Example.com/jobs/7?utm_source=mail")
	b := CanonicalURL("https://example.com/jobs/7")
	assert.Equal(t, a, b)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Data Engineer", CleanText("  Data  Engineer \n"))
	assert.Equal(t, "", CleanText("   "))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Bogotá, Medellín", NormalizeLocation("Location: Bogotá , Medellín"))
	assert.Equal(t, "Bogotá", NormalizeLocation("Bogotá, bogotá"), "case-insensitive dedup")
	assert.Equal(t, "", NormalizeLocation("  "))
}
