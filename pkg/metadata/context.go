package metadata

import "context"

// Identity is the user on whose behalf an operation runs.
//
// A nil *Identity is the anonymous user.
type Identity struct {
	// Username matches the keys of access rules.
	Username string `json:"username"`

	// Admin bypasses every access rule.
	Admin bool `json:"admin,omitempty"`
}

// AnonymousUsername is used in logs and rule lookups for a nil identity.
const AnonymousUsername = "anonymous"

// Name returns the username, or AnonymousUsername for a nil identity.
func (i *Identity) Name() string {
	if i == nil || i.Username == "" {
		return AnonymousUsername
	}
	return i.Username
}

// AuthContext carries the identity used for access control checks along with
// the request context.
//
// Jobs build one AuthContext from the identity that issued the request and
// use it for every permission check of the run, so the checks reflect the
// issuer rather than whoever happens to execute the job.
type AuthContext struct {
	Context context.Context

	Identity *Identity
}

// NewAuthContext creates an AuthContext for identity.
func NewAuthContext(ctx context.Context, identity *Identity) *AuthContext {
	return &AuthContext{Context: ctx, Identity: identity}
}
