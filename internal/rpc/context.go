package rpc

import (
	"strings"

	"github.com/jmehdipour/typed-rpc/api"
)

const (
	UsernameAdmin = "Admin"
	UsernameGuest = "Guest"
)

// DefaultAdminCredential is the Authorization value granting the Admin identity.
const DefaultAdminCredential = "Bearer 123"

// CallContext is the per-call identity handed to a procedure handler.
type CallContext struct {
	Username string
}

// ContextBuilder derives a CallContext from call headers. It is a stand-in
// for authentication, not a security boundary.
type ContextBuilder struct {
	AdminCredential string
}

// Build never fails: anything but an exact credential match is a Guest.
func (b ContextBuilder) Build(headers map[string]string) CallContext {
	if b.AdminCredential != "" && Authorization(headers) == b.AdminCredential {
		return CallContext{Username: UsernameAdmin}
	}
	return CallContext{Username: UsernameGuest}
}

// Authorization returns the Authorization header, matching the key
// case-insensitively.
func Authorization(headers map[string]string) string {
	if v, ok := headers[api.HeaderAuthorization]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, api.HeaderAuthorization) {
			return v
		}
	}
	return ""
}
