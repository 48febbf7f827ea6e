package verify

import (
	"crypto/tls"
	"net"
)

// tlsConfig is a seam replaced by tests that trust their own certificate
// authority.
var tlsConfig = func(serverName string) *tls.Config {
	return &tls.Config{ServerName: serverName}
}

func tlsClient(conn net.Conn, serverName string) net.Conn {
	return tls.Client(conn, tlsConfig(serverName))
}
