// Package verify checks a discovered mailserver configuration against the
// live servers using the user's real credentials. The SMTP and IMAP sides
// are independent sessions checked concurrently; a partial result (one side
// verified, the other failed) is a normal outcome, not an error.
package verify

import (
	"context"
	"strings"
	"sync"
	"time"

	"git.sr.ht/~rjarry/maildiscover/lib/autoconfig"
	"git.sr.ht/~rjarry/maildiscover/lib/log"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds each side of the check.
const DefaultTimeout = 10 * time.Second

// Credentials are what the user typed in. Password carries an app password
// or an OAuth refresh/access token depending on Mechanism.
type Credentials struct {
	Email    string
	Password string
	// Mechanism selects the SASL mechanism: "plain" (default, with a
	// LOGIN fallback when the server does not advertise PLAIN), "login",
	// "oauthbearer" or "xoauth2".
	Mechanism string
}

// Options tune the verification. The zero value uses the defaults.
type Options struct {
	// Timeout bounds each side of the check separately.
	Timeout time.Duration
	// OAuth2 is used to exchange a refresh token for an access token
	// before authenticating, when a token endpoint is configured.
	OAuth2 oauth2.Config
}

// Outcome is the per-protocol verdict. Error is a short user facing phrase
// when classification matched, the raw transport error otherwise.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Result holds both sides of the verification.
type Result struct {
	SMTP Outcome `json:"smtp"`
	IMAP Outcome `json:"imap"`
}

// seams for tests
var (
	smtpCheck = checkSMTP
	imapCheck = checkIMAP
)

// Check authenticates against the SMTP and IMAP servers of cfg concurrently
// and reports each side separately. It never returns nil and never returns
// an error; failures are classified into res.SMTP.Error / res.IMAP.Error.
func Check(ctx context.Context, cfg *autoconfig.Config, creds Credentials, opts Options) *Result {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if isOAuth(creds.Mechanism) && opts.OAuth2.Endpoint.TokenURL != "" {
		token, err := exchangeRefreshToken(ctx, &opts.OAuth2, creds.Password)
		if err != nil {
			outcome := Outcome{Error: classify(err)}
			return &Result{SMTP: outcome, IMAP: outcome}
		}
		creds.Password = token
	}

	res := new(Result)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer log.PanicHandler()
		defer wg.Done()
		res.SMTP = runCheck(ctx, opts.Timeout, func(ctx context.Context) error {
			return smtpCheck(ctx, &cfg.SMTP, creds)
		})
		log.Debugf("smtp %s:%d: success=%t %s",
			cfg.SMTP.Host, cfg.SMTP.Port, res.SMTP.Success, res.SMTP.Error)
	}()
	go func() {
		defer log.PanicHandler()
		defer wg.Done()
		res.IMAP = runCheck(ctx, opts.Timeout, func(ctx context.Context) error {
			return imapCheck(ctx, &cfg.IMAP, creds)
		})
		log.Debugf("imap %s:%d: success=%t %s",
			cfg.IMAP.Host, cfg.IMAP.Port, res.IMAP.Success, res.IMAP.Error)
	}()
	wg.Wait()
	return res
}

// runCheck bounds a single side with its own deadline. The check runs in a
// separate goroutine so that a transport wedged past its connection deadline
// still yields a timeout outcome within bounds.
func runCheck(ctx context.Context, timeout time.Duration, check func(context.Context) error) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer log.PanicHandler()
		done <- check(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return Outcome{Error: classify(err)}
		}
		return Outcome{Success: true}
	case <-ctx.Done():
		return Outcome{Error: classify(ctx.Err())}
	}
}

func isOAuth(mechanism string) bool {
	switch strings.ToLower(mechanism) {
	case "oauthbearer", "xoauth2":
		return true
	}
	return false
}

func exchangeRefreshToken(ctx context.Context, config *oauth2.Config, refreshToken string) (string, error) {
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	token, err := config.TokenSource(ctx, token).Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
