package adapters

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects a Go type into the strict JSON schema shape the
// OpenAI structured-output API accepts: no references, additionalProperties
// false, every property required.
func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	enforceStrictObject(m)
	return m
}

func enforceStrictObject(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if properties, ok := schema["properties"].(map[string]interface{}); ok {
			var required []string
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}

	if properties, ok := schema["properties"].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				enforceStrictObject(propMap)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		enforceStrictObject(items)
	}
}
