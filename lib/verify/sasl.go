package verify

import (
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
)

// newSaslClient builds the SASL client for the requested mechanism.
// advertised is the space separated mechanism list from the server's AUTH
// capability; it may be empty when the transport does not expose one.
func newSaslClient(creds Credentials, advertised string) (sasl.Client, error) {
	switch strings.ToLower(creds.Mechanism) {
	case "", "plain":
		if advertised != "" && !mechanismAdvertised(advertised, sasl.Plain) {
			// some providers only offer LOGIN
			if mechanismAdvertised(advertised, sasl.Login) {
				return sasl.NewLoginClient(creds.Email, creds.Password), nil
			}
		}
		return sasl.NewPlainClient("", creds.Email, creds.Password), nil
	case "login":
		return sasl.NewLoginClient(creds.Email, creds.Password), nil
	case "oauthbearer":
		return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: creds.Email,
			Token:    creds.Password,
		}), nil
	case "xoauth2":
		return newXoauth2Client(creds.Email, creds.Password), nil
	}
	return nil, fmt.Errorf("unsupported auth mechanism %q", creds.Mechanism)
}

func mechanismAdvertised(advertised, mechanism string) bool {
	for _, m := range strings.Fields(advertised) {
		if strings.EqualFold(m, mechanism) {
			return true
		}
	}
	return false
}
