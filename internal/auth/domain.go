package auth

// TokenPair carries the short-lived access token and the longer-lived refresh
// token issued together at login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims are the verified fields extracted from an access token.
type Claims struct {
	Subject string
	Logon   string
}
