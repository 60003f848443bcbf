package types

// SuccessEnvelope mirrors the catalog service envelope so the storefront
// speaks a single response shape.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope carries Notifications when the failed operation produced
// user-facing toasts.
type ErrorEnvelope struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message,omitempty"`
	Error         APIError `json:"error"`
	Notifications any      `json:"notifications,omitempty"`
}
