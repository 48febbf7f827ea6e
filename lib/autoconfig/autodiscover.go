package autoconfig

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const autodiscoverRequest = `<?xml version="1.0" encoding="utf-8"?>
<Autodiscover xmlns="http://schemas.microsoft.com/exchange/autodiscover/outlook/requestschema/2006">
  <Request>
    <EMailAddress>%s</EMailAddress>
    <AcceptableResponseSchema>http://schemas.microsoft.com/exchange/autodiscover/outlook/responseschema/2006a</AcceptableResponseSchema>
  </Request>
</Autodiscover>`

func autodiscoverEnvelope(email string) string {
	var escaped bytes.Buffer
	xml.EscapeText(&escaped, []byte(email)) //nolint:errcheck // cannot fail on a bytes.Buffer
	return fmt.Sprintf(autodiscoverRequest, escaped.String())
}

// tryAutodiscover posts a Microsoft Outlook discovery request to the
// domain. Exchange and compatible servers answer with per-protocol blocks.
func (d *Discoverer) tryAutodiscover(ctx context.Context, domain, email string) *Result {
	urls := []string{
		fmt.Sprintf("https://autodiscover.%s/autodiscover/autodiscover.xml", domain),
		fmt.Sprintf("https://%s/autodiscover/autodiscover.xml", domain),
	}
	body := autodiscoverEnvelope(email)

	var reasons []string
	for _, u := range urls {
		data, err := d.httpFetch(ctx, http.MethodPost, u, "text/xml", body)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		if cfg := parseAutodiscover(data); cfg != nil {
			return success(SourceAutodiscover, cfg)
		}
		reasons = append(reasons, "response contains no usable configuration")
	}
	return failure("autodiscover lookup failed: %s", strings.Join(reasons, "; "))
}

// parseAutodiscover extracts the IMAP and SMTP protocol blocks from an
// Autodiscover response. Both blocks must be present and complete.
func parseAutodiscover(data []byte) *Config {
	root, err := decodeXML(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	if !strings.EqualFold(root.XMLName.Local, "Autodiscover") {
		return nil
	}
	account := root.child("Response").child("Account")
	if account == nil {
		return nil
	}

	var incoming, outgoing *xmlNode
	for _, protocol := range account.each("Protocol") {
		switch strings.ToLower(protocol.childText("Type")) {
		case "imap":
			if incoming == nil {
				incoming = protocol
			}
		case "smtp":
			if outgoing == nil {
				outgoing = protocol
			}
		}
	}
	if incoming == nil || outgoing == nil {
		return nil
	}

	inHost := incoming.childText("Server")
	inPort, inErr := strconv.Atoi(incoming.childText("Port"))
	if inHost == "" || inErr != nil {
		return nil
	}
	outHost := outgoing.childText("Server")
	outPort, outErr := strconv.Atoi(outgoing.childText("Port"))
	if outHost == "" || outErr != nil {
		return nil
	}

	return &Config{
		SMTP: SMTP{
			Host:   outHost,
			Port:   outPort,
			Secure: sslEnabled(outgoing),
		},
		IMAP: IMAP{
			Host: inHost,
			Port: inPort,
			TLS:  sslEnabled(incoming),
		},
	}
}

// sslEnabled interprets the SSL element of a protocol block. Exchange emits
// "on" or "off" and treats a missing element as on.
func sslEnabled(protocol *xmlNode) bool {
	return !strings.EqualFold(protocol.childText("SSL"), "off")
}
