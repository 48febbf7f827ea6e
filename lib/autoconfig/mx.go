package autoconfig

import (
	"context"
	"net"
	"sort"
	"strings"

	"git.sr.ht/~rjarry/maildiscover/lib/log"
)

// tryMX guesses a configuration from the MX records of the domain. This is
// the floor of the chain: as long as the records resolve it always produces
// a candidate, tagged low confidence and unverified.
func (d *Discoverer) tryMX(ctx context.Context, domain, _ string) *Result {
	ctx, cancel := context.WithTimeout(ctx, d.opts.FetchTimeout)
	defer cancel()

	res := make(chan *Result, 1)
	go func() {
		defer log.PanicHandler()
		res <- mxLookup(domain)
	}()

	select {
	case r := <-res:
		return r
	case <-ctx.Done():
		return failure("MX lookup for %s timed out", domain)
	}
}

func mxLookup(domain string) *Result {
	records, err := lookupMX(domain)
	if err != nil {
		return failure("MX lookup for %s failed: %s", domain, err)
	}
	if len(records) == 0 {
		return failure("%s has no MX records", domain)
	}

	sort.Slice(records, func(a, b int) bool { return records[a].Pref < records[b].Pref })

	exchange := strings.TrimSuffix(records[0].Host, ".")
	if cfg := inferFromMX(exchange, domain); cfg != nil {
		log.Debugf("%s: mail hosted behind %s", domain, exchange)
		return success(SourceMXHeuristic, cfg,
			"settings inferred from the mail exchange "+exchange+" and not verified")
	}

	return success(SourceMXHeuristic, genericFallback(domain),
		"hostnames guessed from common conventions and may not exist",
		"settings have not been verified")
}

var lookupMX = net.LookupMX
