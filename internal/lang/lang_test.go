package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	assert.Equal(t, "en", Match("", ""))
	assert.Equal(t, "de", Match("", "de-DE,de;q=0.9,en;q=0.8"))
	assert.Equal(t, "de", Match("de", "en-US"))
	assert.Equal(t, "en", Match("", "fr-FR"))
}

func TestGetReplacesPlaceholders(t *testing.T) {
	s := Get("en", "event:eportfolio:deleted", map[string]string{
		"userid":   "3",
		"filename": "portfolio.h5p",
		"itemid":   "42",
	})
	assert.Equal(t, "The user with the id '3' deleted ePortfolio portfolio.h5p (itemid: '42')", s)
}

func TestGetFallsBack(t *testing.T) {
	assert.Equal(t, english["delete:header"], Get("fr", "delete:header", nil))
	assert.Equal(t, "[[missing:key]]", Get("de", "missing:key", nil))
}

func TestPacksHaveSameKeys(t *testing.T) {
	for key := range english {
		_, ok := german[key]
		assert.True(t, ok, "german pack misses %s", key)
	}
}
