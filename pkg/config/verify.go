package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema.
// Every section and key of the config must be declared by the schema, and required fields must be set.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema map[string]any
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := checkDeclared(schema, "Config", configMap, ""); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// checkDeclared walks values and fails on a key the schema definition doesn't declare
func checkDeclared(schema map[string]any, def string, values map[string]any, path string) error {
	defs, _ := schema["$defs"].(map[string]any)
	definition, ok := defs[def].(map[string]any)
	if !ok {
		return fmt.Errorf("schema has no definition %q", def)
	}
	props, _ := definition["properties"].(map[string]any)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop, ok := props[key].(map[string]any)
		if !ok {
			return fmt.Errorf("%s%s is not declared in schema", path, key)
		}
		nested, isMap := values[key].(map[string]any)
		ref, hasRef := prop["$ref"].(string)
		if !isMap || !hasRef {
			continue
		}
		if err := checkDeclared(schema, refName(ref), nested, path+key+"."); err != nil {
			return err
		}
	}
	return nil
}

// refName extracts the definition name from "#/$defs/Name"
func refName(ref string) string {
	const prefix = "#/$defs/"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Server.Timeout == 0 {
		return fmt.Errorf("server.timeout is required")
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.State.SubscriptionsKey == "" {
		return fmt.Errorf("state.subscriptions_key is required")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
