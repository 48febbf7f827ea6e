package autoconfig

import "fmt"

// Source identifies the strategy that produced a discovery result.
type Source string

const (
	// SourceKnownProvider is set when the domain matched the static
	// provider table
	SourceKnownProvider Source = "known-provider"
	// SourceAutoconfig is set when the provider published a Thunderbird
	// style autoconfig document
	SourceAutoconfig Source = "autoconfig"
	// SourceAutodiscover is set when the provider answered a Microsoft
	// Autodiscover request
	SourceAutodiscover Source = "autodiscover"
	// SourceISPDB is set when the settings came from the public Mozilla
	// ISPDB dataset
	SourceISPDB Source = "ispdb"
	// SourceDNSSRV is set when the settings came from SRV records
	// (RFC 6186)
	SourceDNSSRV Source = "dns-srv"
	// SourceMXHeuristic is set when the settings were guessed from the MX
	// records of the domain
	SourceMXHeuristic Source = "mx-heuristic"
)

// Confidence grades how trustworthy a discovery result is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// confidenceOf maps a source onto its fixed confidence grade. Provider
// published data rates high, SRV records medium, guesses low.
func confidenceOf(source Source) Confidence {
	switch source {
	case SourceDNSSRV:
		return ConfidenceMedium
	case SourceMXHeuristic:
		return ConfidenceLow
	}
	return ConfidenceHigh
}

// SMTP contains the discovered submission settings.
type SMTP struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Secure means implicit TLS on connect. When false the connection is
	// upgraded with STARTTLS.
	Secure     bool   `json:"secure"`
	AuthMethod string `json:"authMethod,omitempty"`
}

// IMAP contains the discovered retrieval settings.
type IMAP struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// TLS means implicit TLS on connect. When false the connection is
	// upgraded with STARTTLS.
	TLS bool `json:"tls"`
}

// Provider carries optional metadata about the mailbox operator.
type Provider struct {
	Name                string `json:"name,omitempty"`
	DisplayName         string `json:"displayName,omitempty"`
	Documentation       string `json:"documentation,omitempty"`
	RequiresAppPassword bool   `json:"requiresAppPassword,omitempty"`
	RequiresOAuth       bool   `json:"requiresOAuth,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// Config contains the discovered settings for the mailserver.
type Config struct {
	SMTP     SMTP      `json:"smtp"`
	IMAP     IMAP      `json:"imap"`
	Provider *Provider `json:"provider,omitempty"`
}

// Result is the envelope returned by every strategy and by Discover itself.
// Strategies never return errors, they return a failed Result.
type Result struct {
	Success    bool       `json:"success"`
	Config     *Config    `json:"config,omitempty"`
	Source     Source     `json:"source,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func success(source Source, cfg *Config, warnings ...string) *Result {
	return &Result{
		Success:    true,
		Config:     cfg,
		Source:     source,
		Confidence: confidenceOf(source),
		Warnings:   warnings,
	}
}

func failure(format string, args ...any) *Result {
	return &Result{Error: fmt.Sprintf(format, args...)}
}
