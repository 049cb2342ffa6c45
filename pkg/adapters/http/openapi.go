package http

import (
	_ "embed"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiSpec []byte

// LoadSpec parses the embedded OpenAPI description of the API.
func LoadSpec() (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(openapiSpec)
}
