package verify

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"git.sr.ht/~rjarry/maildiscover/lib/autoconfig"
	"github.com/emersion/go-smtp"
	"github.com/pkg/errors"
)

// checkSMTP opens a submission session, authenticates and asks the server to
// confirm readiness with a NOOP. The connection is closed on every path.
func checkSMTP(ctx context.Context, cfg *autoconfig.SMTP, creds Credentials) error {
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
	if cfg.Secure {
		conn = tlsClient(conn, cfg.Host)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "smtp.NewClient")
	}
	defer c.Close()

	if !cfg.Secure {
		if err := c.StartTLS(tlsConfig(cfg.Host)); err != nil {
			return errors.Wrap(err, "StartTLS")
		}
	}

	ok, mechanisms := c.Extension("AUTH")
	if !ok {
		return fmt.Errorf("server does not support authentication")
	}
	saslClient, err := newSaslClient(creds, mechanisms)
	if err != nil {
		return err
	}
	if err := c.Auth(saslClient); err != nil {
		return errors.Wrap(err, "Auth")
	}
	if err := c.Noop(); err != nil {
		return errors.Wrap(err, "Noop")
	}
	return c.Quit()
}
