package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the published location of the configuration schema.
const SchemaID = "https://raw.githubusercontent.com/spachava753/luadomain/refs/heads/main/schema/luadomain-config-schema.json"

// Schema returns the JSON schema of the configuration file, indented.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "luadomain Configuration Schema"
	schema.Description = "JSON Schema for luadomain configuration files"
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.ID = SchemaID

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
