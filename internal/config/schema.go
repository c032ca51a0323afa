package config

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var configSchema = jsonschema.MustCompileString("routemeter.schema.json", schemaJSON)

// validateSchema checks the raw document structure before it is decoded
// into Config, so unknown keys and wrongly typed values are reported with
// their location.
func validateSchema(data []byte, isJSON bool) error {
	if !isJSON {
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.Wrap(err, "failed to parse YAML config")
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "config is not representable as JSON")
		}
		data = converted
	}

	// The validator expects numbers as json.Number.
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return errors.Wrap(err, "failed to parse JSON config")
	}
	if err := configSchema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return schemaErrors(verr)
		}
		return errors.Wrap(err, "config does not match schema")
	}
	return nil
}

// schemaErrors flattens a schema failure into its leaf causes, each
// reported at the document location it refers to.
func schemaErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		path := err.InstanceLocation
		if path == "" {
			path = "/"
		}
		return ValidationErrors{{Path: path, Message: err.Message}}
	}

	var out ValidationErrors
	for _, cause := range err.Causes {
		out = append(out, schemaErrors(cause)...)
	}
	return out
}
