package autoconfig

import (
	"context"
	"net/http"
)

// tryISPDB consults the public Mozilla ISPDB dataset, which covers many
// providers that publish nothing themselves. The documents use the same
// clientConfig schema as autoconfig.
func (d *Discoverer) tryISPDB(ctx context.Context, domain, _ string) *Result {
	data, err := d.httpFetch(ctx, http.MethodGet, d.opts.ISPDBURL+domain, "", "")
	if err != nil {
		return failure("ISPDB lookup failed: %s", err)
	}
	if cfg := parseClientConfig(data); cfg != nil {
		return success(SourceISPDB, cfg)
	}
	return failure("ISPDB has no usable entry for %s", domain)
}
