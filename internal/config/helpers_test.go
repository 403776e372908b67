package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lc/ruleconf/internal/config"
)

func mustParse(t *testing.T, name, content string) *config.Document {
	t.Helper()
	doc, err := config.Parse(name, []byte(content))
	require.NoError(t, err)
	return doc
}

func lookup(t *testing.T, c config.Config, qualified string) any {
	t.Helper()
	v, ok := config.LookupPath(c, qualified)
	require.True(t, ok, "expected %s to be set", qualified)
	return v
}
