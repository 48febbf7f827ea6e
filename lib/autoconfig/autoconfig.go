package autoconfig

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// tryAutoconfig asks the provider itself for a Thunderbird style autoconfig
// document. Both well-known locations are tried in order, always over HTTPS.
func (d *Discoverer) tryAutoconfig(ctx context.Context, domain, email string) *Result {
	urls := []string{
		fmt.Sprintf("https://autoconfig.%s/mail/config-v1.1.xml?emailaddress=%s",
			domain, url.QueryEscape(email)),
		fmt.Sprintf("https://%s/.well-known/autoconfig/mail/config-v1.1.xml?emailaddress=%s",
			domain, url.QueryEscape(email)),
	}

	var reasons []string
	for _, u := range urls {
		data, err := d.httpFetch(ctx, http.MethodGet, u, "", "")
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		if cfg := parseClientConfig(data); cfg != nil {
			return success(SourceAutoconfig, cfg)
		}
		reasons = append(reasons, "document contains no usable configuration")
	}
	return failure("autoconfig lookup failed: %s", strings.Join(reasons, "; "))
}

// parseClientConfig extracts the first IMAP incoming and SMTP outgoing
// server from a clientConfig document. Any missing required field discards
// the whole document.
func parseClientConfig(data []byte) *Config {
	root, err := decodeXML(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	if !strings.EqualFold(root.XMLName.Local, "clientConfig") {
		return nil
	}
	provider := root.child("emailProvider")
	if provider == nil {
		return nil
	}

	var incoming, outgoing *xmlNode
	for _, server := range provider.each("incomingServer") {
		if strings.EqualFold(server.attr("type"), "imap") {
			incoming = server
			break
		}
	}
	for _, server := range provider.each("outgoingServer") {
		if strings.EqualFold(server.attr("type"), "smtp") {
			outgoing = server
			break
		}
	}
	if incoming == nil || outgoing == nil {
		return nil
	}

	inHost := incoming.childText("hostname")
	inPort, inErr := strconv.Atoi(incoming.childText("port"))
	inSocket := incoming.childText("socketType")
	if inHost == "" || inErr != nil || inSocket == "" {
		return nil
	}

	outHost := outgoing.childText("hostname")
	outPort, outErr := strconv.Atoi(outgoing.childText("port"))
	outSocket := outgoing.childText("socketType")
	if outHost == "" || outErr != nil || outSocket == "" {
		return nil
	}

	cfg := &Config{
		SMTP: SMTP{
			Host:       outHost,
			Port:       outPort,
			Secure:     strings.EqualFold(outSocket, "SSL"),
			AuthMethod: outgoing.childText("authentication"),
		},
		IMAP: IMAP{
			Host: inHost,
			Port: inPort,
			TLS:  strings.EqualFold(inSocket, "SSL"),
		},
	}

	displayName := provider.childText("displayName")
	documentation := provider.child("documentation").attr("url")
	if displayName != "" || documentation != "" {
		cfg.Provider = &Provider{
			Name:          provider.attr("id"),
			DisplayName:   displayName,
			Documentation: documentation,
		}
	}
	return cfg
}
