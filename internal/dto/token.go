package dto

// TokenStatusResponse reports whether the teacher has a Canvas token stored.
// MaskedToken renders the stored token as ****...NNNN and is empty when no
// token exists.
type TokenStatusResponse struct {
	HasToken    bool   `json:"hasToken"`
	Last4       string `json:"last4,omitempty"`
	MaskedToken string `json:"maskedToken,omitempty"`
}

// SaveTokenRequest stores a new Canvas personal access token for the teacher.
type SaveTokenRequest struct {
	CanvasToken string `json:"canvasToken" binding:"required"`
}
