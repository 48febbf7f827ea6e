package autoconfig

import "strings"

type knownProvider struct {
	domains  []string
	config   Config
	warnings []string
}

// knownProviders is the static table of operators whose settings are public
// knowledge. Entries short-circuit the whole discovery chain, so they only
// belong here when the settings are stable and documented by the operator.
var knownProviders = []knownProvider{
	{
		domains: []string{"gmail.com", "googlemail.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.gmail.com", Port: 465, Secure: true, AuthMethod: "OAuth2"},
			IMAP: IMAP{Host: "imap.gmail.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:                "gmail",
				DisplayName:         "Gmail",
				Documentation:       "https://support.google.com/mail/answer/7126229",
				RequiresAppPassword: true,
				RequiresOAuth:       true,
				Notes:               "account passwords are rejected, sign in with OAuth2 or an app password",
			},
		},
		warnings: []string{"Gmail requires OAuth2 or an app-specific password for IMAP and SMTP"},
	},
	{
		domains: []string{"outlook.com", "hotmail.com", "live.com", "msn.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.office365.com", Port: 587, Secure: false, AuthMethod: "OAuth2"},
			IMAP: IMAP{Host: "outlook.office365.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:          "outlook",
				DisplayName:   "Outlook.com",
				Documentation: "https://support.microsoft.com/en-us/office/pop-imap-and-smtp-settings-8361e398-8af4-4e97-b147-6c6c4ac95353",
				RequiresOAuth: true,
				Notes:         "basic authentication is disabled for most accounts, use OAuth2",
			},
		},
		warnings: []string{"Outlook.com requires OAuth2 for IMAP and SMTP"},
	},
	{
		domains: []string{"yahoo.com", "ymail.com", "rocketmail.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.mail.yahoo.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.mail.yahoo.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:                "yahoo",
				DisplayName:         "Yahoo Mail",
				Documentation:       "https://help.yahoo.com/kb/SLN4724.html",
				RequiresAppPassword: true,
			},
		},
		warnings: []string{"Yahoo requires an app-specific password for IMAP and SMTP"},
	},
	{
		domains: []string{"icloud.com", "me.com", "mac.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.mail.me.com", Port: 587, Secure: false, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.mail.me.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:                "icloud",
				DisplayName:         "iCloud Mail",
				Documentation:       "https://support.apple.com/en-us/HT202304",
				RequiresAppPassword: true,
			},
		},
		warnings: []string{"iCloud requires an app-specific password for IMAP and SMTP"},
	},
	{
		domains: []string{"aol.com", "aim.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.aol.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.aol.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:                "aol",
				DisplayName:         "AOL Mail",
				Documentation:       "https://help.aol.com/articles/how-do-i-use-other-email-applications-to-send-and-receive-my-aol-mail",
				RequiresAppPassword: true,
			},
		},
		warnings: []string{"AOL requires an app-specific password for IMAP and SMTP"},
	},
	{
		domains: []string{"zoho.com", "zohomail.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.zoho.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.zoho.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:          "zoho",
				DisplayName:   "Zoho Mail",
				Documentation: "https://www.zoho.com/mail/help/imap-access.html",
				Notes:         "accounts with two-factor authentication need an app-specific password",
			},
		},
	},
	{
		domains: []string{"fastmail.com", "fastmail.fm"},
		config: Config{
			SMTP: SMTP{Host: "smtp.fastmail.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.fastmail.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:                "fastmail",
				DisplayName:         "Fastmail",
				Documentation:       "https://www.fastmail.help/hc/en-us/articles/1500000278342",
				RequiresAppPassword: true,
			},
		},
		warnings: []string{"Fastmail requires an app-specific password for IMAP and SMTP"},
	},
	{
		domains: []string{"gmx.com"},
		config: Config{
			SMTP: SMTP{Host: "mail.gmx.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.gmx.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:          "gmx",
				DisplayName:   "GMX Mail",
				Documentation: "https://support.gmx.com/pop-imap/imap/index.html",
				Notes:         "IMAP access must be enabled in the webmail settings first",
			},
		},
	},
	{
		domains: []string{"gmx.de", "gmx.net", "gmx.at", "gmx.ch"},
		config: Config{
			SMTP: SMTP{Host: "mail.gmx.net", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.gmx.net", Port: 993, TLS: true},
			Provider: &Provider{
				Name:          "gmx",
				DisplayName:   "GMX Mail",
				Documentation: "https://hilfe.gmx.net/pop-imap/imap/index.html",
				Notes:         "IMAP access must be enabled in the webmail settings first",
			},
		},
	},
	{
		domains: []string{"yandex.com", "yandex.ru", "ya.ru"},
		config: Config{
			SMTP: SMTP{Host: "smtp.yandex.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.yandex.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:                "yandex",
				DisplayName:         "Yandex Mail",
				Documentation:       "https://yandex.com/support/mail/mail-clients/others.html",
				RequiresAppPassword: true,
			},
		},
		warnings: []string{"Yandex requires an app-specific password for IMAP and SMTP"},
	},
	{
		domains: []string{"mail.com"},
		config: Config{
			SMTP: SMTP{Host: "smtp.mail.com", Port: 465, Secure: true, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "imap.mail.com", Port: 993, TLS: true},
			Provider: &Provider{
				Name:        "mail.com",
				DisplayName: "mail.com",
			},
		},
	},
	{
		domains: []string{"proton.me", "protonmail.com", "protonmail.ch", "pm.me"},
		config: Config{
			SMTP: SMTP{Host: "127.0.0.1", Port: 1025, Secure: false, AuthMethod: "password-cleartext"},
			IMAP: IMAP{Host: "127.0.0.1", Port: 1143, TLS: false},
			Provider: &Provider{
				Name:                "protonmail",
				DisplayName:         "Proton Mail",
				Documentation:       "https://proton.me/mail/bridge",
				RequiresAppPassword: true,
				Notes:               "IMAP and SMTP only work through the Proton Mail Bridge running on this machine",
			},
		},
		warnings: []string{"Proton Mail requires the Proton Mail Bridge, the listed servers are the local bridge endpoints"},
	},
}

var providerIndex = make(map[string]*knownProvider)

func init() {
	for i := range knownProviders {
		p := &knownProviders[i]
		for _, domain := range p.domains {
			providerIndex[domain] = p
		}
	}
}

// lookupKnown consults the static provider table.
func lookupKnown(domain string) *Result {
	p, ok := providerIndex[domain]
	if !ok {
		return failure("%s is not in the provider table", domain)
	}
	cfg := p.config
	return success(SourceKnownProvider, &cfg, p.warnings...)
}

// knownConfig returns a copy of the table entry registered for alias.
func knownConfig(alias string) *Config {
	p, ok := providerIndex[alias]
	if !ok {
		return nil
	}
	cfg := p.config
	return &cfg
}

// inferFromMX matches the primary mail exchange hostname against patterns of
// providers that host mail for third-party domains.
func inferFromMX(mxHost, domain string) *Config {
	switch {
	case strings.Contains(mxHost, "google"):
		return knownConfig("gmail.com")
	case strings.Contains(mxHost, "outlook"):
		// includes *.mail.protection.outlook.com used by hosted tenants
		return knownConfig("outlook.com")
	case strings.Contains(mxHost, "zoho"):
		return zohoRegionConfig(mxHost)
	case strings.Contains(mxHost, "protonmail"), strings.Contains(mxHost, "proton.me"):
		return knownConfig("proton.me")
	case strings.Contains(mxHost, "yandex"):
		return knownConfig("yandex.com")
	case strings.Contains(mxHost, "secureserver.net"):
		return hostedConfig("godaddy", "GoDaddy", "smtpout.secureserver.net", "imap.secureserver.net")
	case strings.Contains(mxHost, "ovh.net"):
		return hostedConfig("ovh", "OVH", "ssl0.ovh.net", "ssl0.ovh.net")
	case strings.Contains(mxHost, "kundenserver"), strings.Contains(mxHost, "ionos"):
		return hostedConfig("ionos", "IONOS", "smtp.ionos.com", "imap.ionos.com")
	case strings.Contains(mxHost, "gandi.net"):
		return hostedConfig("gandi", "Gandi", "mail.gandi.net", "mail.gandi.net")
	case strings.Contains(mxHost, "hostinger"):
		return hostedConfig("hostinger", "Hostinger", "smtp.hostinger.com", "imap.hostinger.com")
	}
	return nil
}

// zohoRegionConfig keeps the regional suffix of the exchange, mx.zoho.eu
// serves mailboxes on smtp.zoho.eu.
func zohoRegionConfig(mxHost string) *Config {
	region := "com"
	if i := strings.LastIndex(mxHost, "zoho."); i >= 0 {
		suffix := strings.TrimSuffix(mxHost[i+len("zoho."):], ".")
		if suffix != "" && !strings.Contains(suffix, ".") {
			region = suffix
		}
	}
	cfg := knownConfig("zoho.com")
	cfg.SMTP.Host = "smtp.zoho." + region
	cfg.IMAP.Host = "imap.zoho." + region
	return cfg
}

func hostedConfig(name, displayName, smtpHost, imapHost string) *Config {
	return &Config{
		SMTP: SMTP{Host: smtpHost, Port: 465, Secure: true, AuthMethod: "password-cleartext"},
		IMAP: IMAP{Host: imapHost, Port: 993, TLS: true},
		Provider: &Provider{
			Name:        name,
			DisplayName: displayName,
		},
	}
}

// genericFallback guesses conventional hostnames on the standard secure
// ports. It is only used when everything else failed.
func genericFallback(domain string) *Config {
	return &Config{
		SMTP: SMTP{Host: "smtp." + domain, Port: 465, Secure: true, AuthMethod: "password-cleartext"},
		IMAP: IMAP{Host: "imap." + domain, Port: 993, TLS: true},
	}
}
