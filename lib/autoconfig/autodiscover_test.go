package autoconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAutodiscover(t *testing.T) {
	var posted []string
	httpPost = func(url, contentType string, body io.Reader) (*http.Response, error) {
		posted = append(posted, url)
		data, _ := io.ReadAll(body)
		assert.Equal(t, "text/xml", contentType)
		assert.Contains(t, string(data), "<EMailAddress>john@office.example</EMailAddress>")

		switch url {
		case "https://autodiscover.office.example/autodiscover/autodiscover.xml":
			return &http.Response{
				StatusCode: 404,
				Status:     "404 Not Found",
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		case "https://office.example/autodiscover/autodiscover.xml":
			return &http.Response{
				StatusCode: 200,
				Status:     "200 OK",
				Body:       io.NopCloser(strings.NewReader(officeAutodiscover)),
			}, nil
		default:
			return nil, fmt.Errorf("%q not prepared", url)
		}
	}
	defer func() {
		httpPost = http.Post
	}()

	d := New(Options{FetchTimeout: 100 * time.Millisecond}, nil)
	res := d.tryAutodiscover(context.Background(), "office.example", "john@office.example")

	assert.True(t, res.Success)
	assert.Equal(t, SourceAutodiscover, res.Source)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.Equal(t, &Config{
		SMTP: SMTP{Host: "smtp.office.example", Port: 587, Secure: false},
		IMAP: IMAP{Host: "imap.office.example", Port: 993, TLS: true},
	}, res.Config)

	// the autodiscover subdomain is contacted first
	assert.Equal(t, []string{
		"https://autodiscover.office.example/autodiscover/autodiscover.xml",
		"https://office.example/autodiscover/autodiscover.xml",
	}, posted)
}

func TestAutodiscoverEnvelope(t *testing.T) {
	body := autodiscoverEnvelope("o'brien&co@example.com")
	assert.Contains(t, body, "o&#39;brien&amp;co@example.com")
	assert.Contains(t, body, "requestschema/2006")
	assert.Contains(t, body, "responseschema/2006a")
	assert.NotContains(t, body, "o'brien&co")
}

func TestParseAutodiscoverRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"wrong root", "<Response/>"},
		{"no account", `<Autodiscover><Response/></Autodiscover>`},
		{
			"imap only",
			`<Autodiscover><Response><Account>
				<Protocol><Type>IMAP</Type><Server>i.x</Server><Port>993</Port></Protocol>
			</Account></Response></Autodiscover>`,
		},
		{
			"missing server",
			`<Autodiscover><Response><Account>
				<Protocol><Type>IMAP</Type><Port>993</Port></Protocol>
				<Protocol><Type>SMTP</Type><Server>s.x</Server><Port>465</Port></Protocol>
			</Account></Response></Autodiscover>`,
		},
		{
			"bad port",
			`<Autodiscover><Response><Account>
				<Protocol><Type>IMAP</Type><Server>i.x</Server><Port>nine</Port></Protocol>
				<Protocol><Type>SMTP</Type><Server>s.x</Server><Port>465</Port></Protocol>
			</Account></Response></Autodiscover>`,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Nil(t, parseAutodiscover([]byte(test.doc)))
		})
	}
}

func TestParseAutodiscoverCaseInsensitive(t *testing.T) {
	doc := `<autodiscover><response><account>
		<protocol><type>imap</type><server>imap.example.net</server><port>143</port><ssl>OFF</ssl></protocol>
		<protocol><type>smtp</type><server>smtp.example.net</server><port>465</port><ssl>on</ssl></protocol>
	</account></response></autodiscover>`
	cfg := parseAutodiscover([]byte(doc))
	if !assert.NotNil(t, cfg) {
		return
	}
	assert.Equal(t, "imap.example.net", cfg.IMAP.Host)
	assert.False(t, cfg.IMAP.TLS)
	assert.Equal(t, "smtp.example.net", cfg.SMTP.Host)
	assert.True(t, cfg.SMTP.Secure)
}

const officeAutodiscover = `<?xml version="1.0" encoding="utf-8"?>
<Autodiscover xmlns="http://schemas.microsoft.com/exchange/autodiscover/responseschema/2006">
  <Response xmlns="http://schemas.microsoft.com/exchange/autodiscover/outlook/responseschema/2006a">
    <Account>
      <AccountType>email</AccountType>
      <Action>settings</Action>
      <Protocol>
        <Type>IMAP</Type>
        <Server>imap.office.example</Server>
        <Port>993</Port>
        <LoginName>john@office.example</LoginName>
        <SSL>on</SSL>
        <AuthRequired>on</AuthRequired>
      </Protocol>
      <Protocol>
        <Type>SMTP</Type>
        <Server>smtp.office.example</Server>
        <Port>587</Port>
        <LoginName>john@office.example</LoginName>
        <SSL>off</SSL>
        <AuthRequired>on</AuthRequired>
      </Protocol>
    </Account>
  </Response>
</Autodiscover>
`
