package config

import "github.com/invopop/jsonschema"

// Schema describes the configuration document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Config{})
	schema.Title = "voicechat configuration"
	return schema
}
