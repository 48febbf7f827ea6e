package verify

import (
	"bufio"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"
)

// trustOwnCert generates a throwaway certificate for 127.0.0.1 and swaps the
// tlsConfig seam so the client trusts it. Returns the server side half.
func trustOwnCert(t *testing.T) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "verify test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	restore := tlsConfig
	tlsConfig = func(serverName string) *tls.Config {
		return &tls.Config{ServerName: serverName, RootCAs: pool}
	}
	t.Cleanup(func() { tlsConfig = restore })

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func startServer(t *testing.T, cert tls.Certificate, handle func(conn net.Conn)) int {
	t.Helper()

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	listener := tls.NewListener(inner, &tls.Config{
		Certificates: []tls.Certificate{cert},
	})
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()
	return inner.Addr().(*net.TCPAddr).Port
}

// startSMTPServer serves a minimal submission dialog over implicit TLS.
// Only the given password is accepted.
func startSMTPServer(t *testing.T, cert tls.Certificate, password string) int {
	return startServer(t, cert, func(conn net.Conn) {
		write := func(s string) { conn.Write([]byte(s)) } //nolint:errcheck // test server
		write("220 test.local ESMTP\r\n")
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "EHLO"):
				write("250-test.local\r\n250 AUTH PLAIN LOGIN\r\n")
			case strings.HasPrefix(line, "AUTH PLAIN "):
				raw, err := base64.StdEncoding.DecodeString(
					strings.TrimPrefix(line, "AUTH PLAIN "))
				parts := strings.Split(string(raw), "\x00")
				if err == nil && len(parts) == 3 && parts[2] == password {
					write("235 2.7.0 accepted\r\n")
				} else {
					write("535 5.7.8 authentication credentials invalid\r\n")
				}
			case strings.HasPrefix(line, "NOOP"):
				write("250 2.0.0 ok\r\n")
			case strings.HasPrefix(line, "QUIT"):
				write("221 2.0.0 bye\r\n")
				return
			default:
				write("502 5.5.1 not implemented\r\n")
			}
		}
	})
}

// startIMAPServer serves a minimal retrieval dialog over implicit TLS.
func startIMAPServer(t *testing.T, cert tls.Certificate, password string) int {
	return startServer(t, cert, func(conn net.Conn) {
		write := func(s string) { conn.Write([]byte(s)) } //nolint:errcheck // test server
		write("* OK [CAPABILITY IMAP4rev1 AUTH=PLAIN] ready\r\n")
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			tag := fields[0]
			switch strings.ToUpper(fields[1]) {
			case "CAPABILITY":
				write("* CAPABILITY IMAP4rev1 AUTH=PLAIN\r\n")
				write(tag + " OK done\r\n")
			case "LOGIN":
				if strings.Contains(line, "\""+password+"\"") {
					write(tag + " OK logged in\r\n")
				} else {
					write(tag + " NO Authentication failed.\r\n")
				}
			case "LOGOUT":
				write("* BYE closing\r\n")
				write(tag + " OK bye\r\n")
				return
			default:
				write(tag + " BAD unknown command\r\n")
			}
		}
	})
}

// startSilentServer accepts connections and never says anything, to exercise
// deadline handling.
func startSilentServer(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		var conns []net.Conn
		defer func() {
			for _, conn := range conns {
				conn.Close()
			}
		}()
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()
	return listener.Addr().(*net.TCPAddr).Port
}

// closedPort reserves a port and releases it so that connecting fails.
func closedPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}
