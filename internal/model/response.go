package model

// NotesResponse is the envelope for the note list endpoint.
type NotesResponse struct {
	Notes []Note `json:"notes"`
}

// KeysResponse is the envelope for the API key list endpoint.
type KeysResponse struct {
	Data []KeySummary `json:"data"`
}

// IssuedKeyResponse is returned by key issuance. Key holds the plaintext
// credential and is populated exactly once; it can never be retrieved again.
type IssuedKeyResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Scope  []string `json:"scope"`
	Key    string   `json:"api_key"`
	Prefix string   `json:"prefix"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the envelope for endpoints that report only success.
type StatusResponse struct {
	Status string `json:"status"`
}
