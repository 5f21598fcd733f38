// Package credentials manages the OAuth credential used to call the YouTube Data API.
//
// A credential lives in a local cache file. At request time the Provider loads it,
// refreshes it when expired, and writes it back. When no usable credential exists the
// Provider reports that authentication is required; the interactive consent flow is
// run by an operator through ConsentFlow, never from request handling.
package credentials

import (
	"slices"
	"time"

	"golang.org/x/oauth2"
)

// Credential is the persisted form of an OAuth token pair
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// FromToken converts an oauth2 token into a Credential granted for scopes.
// Expiry is kept in UTC without a monotonic reading, the form it has after a cache roundtrip.
func FromToken(tok *oauth2.Token, scopes []string) *Credential {
	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry.Round(0).UTC(),
		Scopes:       slices.Clone(scopes),
	}
}

// Token converts the credential back into an oauth2 token
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Valid reports whether the access token can be used as is
func (c *Credential) Valid() bool {
	return c != nil && c.Token().Valid()
}

// CanRefresh reports whether the credential carries a refresh token
func (c *Credential) CanRefresh() bool {
	return c != nil && c.RefreshToken != ""
}

// Covers reports whether every required scope was granted.
// Credentials written without scope information are accepted.
func (c *Credential) Covers(required []string) bool {
	if len(c.Scopes) == 0 {
		return true
	}
	for _, scope := range required {
		if !slices.Contains(c.Scopes, scope) {
			return false
		}
	}
	return true
}
