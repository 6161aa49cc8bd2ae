package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"0", "-1", "abc", ""} {
		_, err := parseID(raw)
		assert.Error(t, err, raw)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"likes": 2}))
	assert.Equal(t, "{\n  \"likes\": 2\n}\n", buf.String())
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"timeline", "likes", "linked", "comment", "likers", "reposters", "search"}, names)

	search, _, err := root.Find([]string{"search"})
	require.NoError(t, err)
	scope := search.Flags().Lookup("scope")
	require.NotNil(t, scope)
	assert.Equal(t, "top", scope.DefValue)

	assert.NotNil(t, root.PersistentFlags().Lookup("viewer"))
}
