package domain

// Credentials holds the bearer token and user identifier for the current
// session. Written only at login/logout; read on every outbound request.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Valid returns true if both the token and the user ID are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.UserID != ""
}
