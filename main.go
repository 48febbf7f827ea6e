package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/mattn/go-isatty"
	"golang.org/x/oauth2"

	"git.sr.ht/~rjarry/maildiscover/config"
	"git.sr.ht/~rjarry/maildiscover/lib/autoconfig"
	"git.sr.ht/~rjarry/maildiscover/lib/log"
	"git.sr.ht/~rjarry/maildiscover/lib/verify"
)

// set at build time
var Version string

func buildInfo() string {
	return fmt.Sprintf("%s (%s %s %s)",
		Version, runtime.Version(), runtime.GOARCH, runtime.GOOS)
}

func usage(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	fmt.Fprintln(os.Stderr,
		"usage: maildiscover [-v] [-j] [-V] [-c <path>] [-l <level>] <address>")
	os.Exit(1)
}

func initLog(conf *config.MaildiscoverConfig) error {
	var logFile *os.File
	if conf.Log.File != "" {
		f, err := os.OpenFile(conf.Log.File,
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		logFile = f
	} else if !isatty.IsTerminal(os.Stderr.Fd()) {
		logFile = os.Stderr
	}
	return log.Init(logFile, conf.Log.Level)
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(password, "\r\n"), nil
}

func printResult(res *autoconfig.Result) {
	if !res.Success {
		fmt.Printf("discovery failed: %s\n", res.Error)
		for _, warning := range res.Warnings {
			fmt.Printf("  %s\n", warning)
		}
		return
	}
	cfg := res.Config
	fmt.Printf("source: %s (confidence: %s)\n", res.Source, res.Confidence)
	fmt.Printf("smtp: %s:%d (tls: %t)\n", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Secure)
	fmt.Printf("imap: %s:%d (tls: %t)\n", cfg.IMAP.Host, cfg.IMAP.Port, cfg.IMAP.TLS)
	if p := cfg.Provider; p != nil {
		if p.DisplayName != "" {
			fmt.Printf("provider: %s\n", p.DisplayName)
		}
		if p.Documentation != "" {
			fmt.Printf("documentation: %s\n", p.Documentation)
		}
	}
	for _, warning := range res.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
}

func printVerification(res *verify.Result) {
	sides := []struct {
		name    string
		outcome verify.Outcome
	}{
		{"smtp", res.SMTP},
		{"imap", res.IMAP},
	}
	for _, side := range sides {
		if side.outcome.Success {
			fmt.Printf("%s: verified\n", side.name)
		} else {
			fmt.Printf("%s: %s\n", side.name, side.outcome.Error)
		}
	}
}

func main() {
	defer log.PanicHandler()

	opts, optind, err := getopt.Getopts(os.Args, "vjVc:l:")
	if err != nil {
		usage("error: " + err.Error())
		return
	}
	var confPath, logLevel string
	var jsonOutput, doVerify bool
	for _, opt := range opts {
		switch opt.Option {
		case 'v':
			fmt.Println("maildiscover " + buildInfo())
			return
		case 'j':
			jsonOutput = true
		case 'V':
			doVerify = true
		case 'c':
			confPath = opt.Value
		case 'l':
			logLevel = opt.Value
		}
	}
	args := os.Args[optind:]
	if len(args) != 1 {
		usage("error: exactly one address is required")
		return
	}
	address := args[0]

	conf, err := config.LoadConfig(confPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			usage("error: " + err.Error())
			return
		}
		conf.Log.Level = level
	}
	if err := initLog(conf); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	log.Infof("starting version %s", buildInfo())

	cache := autoconfig.NewCache(conf.Discovery.SuccessTTL, conf.Discovery.FailureTTL)
	discoverer := autoconfig.New(autoconfig.Options{
		FetchTimeout: conf.Discovery.FetchTimeout,
		ISPDBURL:     conf.Discovery.IspdbURL,
	}, cache)

	res := discoverer.Discover(context.Background(), address)

	var verification *verify.Result
	if doVerify && res.Success {
		password, err := readPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
			os.Exit(1)
		}
		verification = verify.Check(context.Background(), res.Config,
			verify.Credentials{Email: address, Password: password},
			verify.Options{
				Timeout: conf.Verify.Timeout,
				OAuth2: oauth2.Config{
					ClientID:     conf.Verify.ClientID,
					ClientSecret: conf.Verify.ClientSecret,
					Scopes:       conf.Verify.Scopes,
					Endpoint: oauth2.Endpoint{
						TokenURL: conf.Verify.TokenEndpoint,
					},
				},
			})
	}

	if jsonOutput {
		out := struct {
			Discovery    *autoconfig.Result `json:"discovery"`
			Verification *verify.Result     `json:"verification,omitempty"`
		}{res, verification}
		if err := json.NewEncoder(os.Stdout).Encode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
	} else {
		printResult(res)
		if verification != nil {
			printVerification(verification)
		}
	}

	if !res.Success {
		os.Exit(1) //nolint:gocritic // PanicHandler does not need to run as it's not a panic
	}
}
