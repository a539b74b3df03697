// Package jsonnet validates the dashboard definitions shipped under
// grafana/dashboards before they are provisioned.
package jsonnet

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// dashboardSchema checks the structural invariants Grafana provisioning
// relies on. The full upstream schema is enormous and churns with every
// release, so only the fields the provisioner actually reads are enforced.
const dashboardSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"uid": {"type": "string"},
		"panels": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"type": {"type": "string"},
					"targets": {"type": "array"}
				},
				"required": ["title", "type"]
			}
		},
		"schemaVersion": {"type": "integer"}
	},
	"required": ["title", "panels"]
}`

// ValidateDashboard checks a dashboard JSON document against the schema.
// It returns the individual violations when the document is invalid.
func ValidateDashboard(dashboardJSON []byte) (bool, []gojsonschema.ResultError, error) {
	schemaLoader := gojsonschema.NewStringLoader(dashboardSchema)
	documentLoader := gojsonschema.NewBytesLoader(dashboardJSON)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return false, nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}
	return false, result.Errors(), nil
}
