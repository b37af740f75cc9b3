package auth

import "errors"

// ErrInvalidCredentials is returned when a credential pair is constructed
// with an empty client ID or secret.
var ErrInvalidCredentials = errors.New("client ID and client secret are required")

// ClientCredentials identifies a client to the identity provider. Values are
// immutable once constructed and compare structurally, so they are usable as
// map keys. The zero value is not valid: use NewClientCredentials.
type ClientCredentials struct {
	clientID     string
	clientSecret string
}

// NewClientCredentials validates and constructs a credential pair.
func NewClientCredentials(clientID, clientSecret string) (ClientCredentials, error) {
	if clientID == "" || clientSecret == "" {
		return ClientCredentials{}, ErrInvalidCredentials
	}

	return ClientCredentials{
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

func (c ClientCredentials) ClientID() string {
	return c.clientID
}

func (c ClientCredentials) ClientSecret() string {
	return c.clientSecret
}

// String identifies the credentials without revealing the secret, keeping
// accidental logging safe.
func (c ClientCredentials) String() string {
	return "client:" + c.clientID
}
