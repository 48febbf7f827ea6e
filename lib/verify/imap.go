package verify

import (
	"context"
	"net"
	"strconv"
	"strings"

	"git.sr.ht/~rjarry/maildiscover/lib/autoconfig"
	"git.sr.ht/~rjarry/maildiscover/lib/log"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
	"github.com/pkg/errors"
)

func init() {
	imap.CharsetReader = charset.Reader
}

// checkIMAP opens a retrieval session and logs in. Logout is attempted
// regardless of outcome so the server side session is not left dangling.
func checkIMAP(ctx context.Context, cfg *autoconfig.IMAP, creds Credentials) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	if cfg.TLS {
		conn = tlsClient(conn, cfg.Host)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "client.New")
	}
	c.ErrorLog = log.ErrorLogger()
	defer func() {
		if err := c.Logout(); err != nil {
			log.Debugf("imap logout: %v", err)
		}
	}()

	if !cfg.TLS {
		if err := c.StartTLS(tlsConfig(cfg.Host)); err != nil {
			return errors.Wrap(err, "StartTLS")
		}
	}

	switch strings.ToLower(creds.Mechanism) {
	case "oauthbearer", "xoauth2":
		saslClient, err := newSaslClient(creds, "")
		if err != nil {
			return err
		}
		if err := c.Authenticate(saslClient); err != nil {
			return errors.Wrap(err, "Authenticate")
		}
	default:
		if err := c.Login(creds.Email, creds.Password); err != nil {
			return errors.Wrap(err, "Login")
		}
	}
	return nil
}
