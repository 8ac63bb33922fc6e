package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	site, err := Lookup(SiteECHA, SiteOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "echa", site.Name())
	assert.Equal(t, "https://echa.europa.eu", site.StartURL())
	_, ok := site.(DateFilterer)
	assert.True(t, ok)

	site, err = Lookup(SiteEURLex, SiteOptions{StartURL: "https://eur-lex.europa.eu/homepage.html"})
	require.NoError(t, err)
	assert.Equal(t, "https://eur-lex.europa.eu/homepage.html", site.StartURL())
	_, ok = site.(DateFilterer)
	assert.False(t, ok)

	_, err = Lookup("fda", SiteOptions{})
	assert.ErrorContains(t, err, "unknown site")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"echa", "eurlex"}, Names())
}
