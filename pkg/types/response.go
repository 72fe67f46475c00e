package types

type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// ProxyErrorEnvelope is the body returned when an AI upstream call fails.
type ProxyErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
