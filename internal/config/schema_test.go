package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var doc struct {
		ID   string                     `json:"$id"`
		Defs map[string]json.RawMessage `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, SchemaID, doc.ID)
	assert.Contains(t, doc.Defs, "Config")
	assert.Contains(t, doc.Defs, "BuildConfig")
	assert.Contains(t, doc.Defs, "FormatConfig")
	assert.Contains(t, string(doc.Defs["BuildConfig"]), "modindex_common_prefix")
}
