package auth

import "golang.org/x/oauth2"

// TokenSource adapts the core to oauth2.TokenSource so HTTP consumers
// (the catalog client) attach the bearer header through oauth2.NewClient
// and always see the token currently held by the core.
func (c *Core) TokenSource() oauth2.TokenSource {
	return coreTokenSource{core: c}
}

type coreTokenSource struct {
	core *Core
}

func (ts coreTokenSource) Token() (*oauth2.Token, error) {
	tok := ts.core.Token()
	if tok == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
