package auth

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// TokenVerifier checks session tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*TokenInfo, error)
}

// Tokens issues and verifies session tokens.
type Tokens interface {
	TokenIssuer
	TokenVerifier
}
