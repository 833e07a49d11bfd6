package iceberg

// ConfigResponse is the body of GET /v1/config. Overrides take precedence
// over client settings; "prefix" scopes every other route.
type ConfigResponse struct {
	Defaults  map[string]string `json:"defaults"`
	Overrides map[string]string `json:"overrides"`
}

type ListNamespacesResponse struct {
	Namespaces [][]string `json:"namespaces"`
}

type TableIdentifier struct {
	Namespace []string `json:"namespace"`
	Name      string   `json:"name"`
}

type ListTablesResponse struct {
	Identifiers []TableIdentifier `json:"identifiers"`
}

// ErrorResponse is the catalog's error envelope.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
