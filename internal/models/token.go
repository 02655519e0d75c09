package models

// TokenStatus reports whether a teacher has a Canvas access token stored with
// the workflow backend. The token itself never passes back through this
// service; only the masked tail does.
type TokenStatus struct {
	HasToken bool   `json:"has_token"`
	Last4    string `json:"last4,omitempty"`
}
