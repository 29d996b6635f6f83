package swagger

import _ "embed"

//go:embed openapi.yaml
var document []byte

// Document returns a copy of the embedded OpenAPI 3 document.
func Document() []byte {
	return append([]byte(nil), document...)
}
