package autoconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"git.sr.ht/~rjarry/maildiscover/lib/log"
)

const (
	DefaultFetchTimeout = 5 * time.Second
	DefaultISPDBURL     = "https://autoconfig.thunderbird.net/v1.1/"

	// documents larger than this are cut off, no provider ships
	// configuration files anywhere near that size
	maxDocumentSize = 1 << 20
)

// Options tune the discovery chain. The zero value uses the defaults.
type Options struct {
	// FetchTimeout bounds every single HTTP fetch and DNS lookup.
	FetchTimeout time.Duration
	// ISPDBURL is the base URL of the public Mozilla ISPDB dataset.
	ISPDBURL string
}

// Discoverer runs the discovery chain and caches its outcomes. Construct one
// per process and share it, the cache is safe for concurrent use.
type Discoverer struct {
	opts  Options
	cache *Cache
}

func New(opts Options, cache *Cache) *Discoverer {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.ISPDBURL == "" {
		opts.ISPDBURL = DefaultISPDBURL
	}
	if !strings.HasSuffix(opts.ISPDBURL, "/") {
		opts.ISPDBURL += "/"
	}
	if cache == nil {
		cache = NewCache(DefaultSuccessTTL, DefaultFailureTTL)
	}
	return &Discoverer{opts: opts, cache: cache}
}

// Discover attempts to retrieve the mailserver settings for the given mail
// address. Strategies run in a fixed order from most to least authoritative
// and the first success wins. Outcomes, negative ones included, are cached
// per domain. Discover never returns nil and never returns an error, a
// failed lookup is a Result with Success unset.
func (d *Discoverer) Discover(ctx context.Context, email string) *Result {
	log.Debugf("looking up configuration for %q", email)

	email = strings.TrimSpace(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return failure("%q is not a valid mail address", email)
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if !ValidDomain(domain) {
		return failure("%q is not a valid mail domain", domain)
	}

	if res := d.cache.get(domain); res != nil {
		log.Tracef("cache hit for %s", domain)
		return res
	}

	res := d.runChain(ctx, domain, email)
	d.cache.set(domain, res)
	return res
}

// ClearCache drops the cached outcome for domain, or every cached outcome
// when domain is empty.
func (d *Discoverer) ClearCache(domain string) {
	d.cache.Clear(domain)
}

func (d *Discoverer) runChain(ctx context.Context, domain, email string) *Result {
	stages := []struct {
		name string
		run  func(ctx context.Context, domain, email string) *Result
	}{
		{"known-provider", func(_ context.Context, domain, _ string) *Result {
			return lookupKnown(domain)
		}},
		{"autoconfig", d.tryAutoconfig},
		{"autodiscover", d.tryAutodiscover},
		{"ispdb", d.tryISPDB},
		{"dns-srv", d.trySRV},
		{"mx-heuristic", d.tryMX},
	}

	var warnings []string
	for _, stage := range stages {
		res := stage.run(ctx, domain, email)
		if res.Success {
			log.Debugf("%s: configuration found via %s", domain, res.Source)
			return res
		}
		log.Debugf("%s: %s: %s", domain, stage.name, res.Error)
		warnings = append(warnings, stage.name+": "+res.Error)
	}

	res := failure("no configuration could be discovered for %s", domain)
	res.Warnings = warnings
	return res
}

// httpFetch runs a single bounded HTTPS request. Transport errors, non-2xx
// statuses and timeouts all come back as plain errors for the caller to
// absorb into a failed Result.
func (d *Discoverer) httpFetch(ctx context.Context, method, url, contentType, body string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.FetchTimeout)
	defer cancel()

	type fetched struct {
		data []byte
		err  error
	}
	res := make(chan fetched, 1)
	go func() {
		defer log.PanicHandler()

		var response *http.Response
		var err error
		if method == http.MethodPost {
			response, err = httpPost(url, contentType, strings.NewReader(body))
		} else {
			response, err = httpGet(url)
		}
		if err != nil {
			res <- fetched{nil, err}
			return
		}
		defer response.Body.Close()
		if response.StatusCode < 200 || response.StatusCode > 299 {
			res <- fetched{nil, fmt.Errorf("unexpected status %q", response.Status)}
			return
		}
		data, err := io.ReadAll(io.LimitReader(response.Body, maxDocumentSize))
		res <- fetched{data, err}
	}()

	select {
	case r := <-res:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var (
	httpGet  = http.Get
	httpPost = http.Post
)
