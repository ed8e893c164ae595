package session

// Credentials is the access/refresh token pair issued at login. At most one
// pair exists at a time; a successful refresh replaces it wholesale.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists the credential pair between runs. Save replaces any previous
// pair; Load returns ErrNoCredentials when nothing is stored.
type Store interface {
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}
