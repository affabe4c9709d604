package domain

// Context is the authenticated identity for one inbound request.
// It is produced fresh per request, never persisted, and passed explicitly
// as a parameter through the call chain — never recovered from ambient state.
type Context struct {
	UserID string
	OrgID  string
	// BearerToken is the caller's raw credential, forwarded as-is to the
	// compute runtime. Never log it.
	BearerToken string
}
