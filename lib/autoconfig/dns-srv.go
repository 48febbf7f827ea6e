package autoconfig

import (
	"context"
	"net"
	"sort"
	"strings"
	"sync"

	"git.sr.ht/~rjarry/maildiscover/lib/log"
)

// trySRV retrieves the config from the provider using SRV DNS records
// (RFC 6186). Submission is preferred over smtps, imaps over imap.
func (d *Discoverer) trySRV(ctx context.Context, domain, _ string) *Result {
	ctx, cancel := context.WithTimeout(ctx, d.opts.FetchTimeout)
	defer cancel()

	res := make(chan *Result, 1)
	go func() {
		defer log.PanicHandler()
		res <- srvLookup(domain)
	}()

	select {
	case r := <-res:
		return r
	case <-ctx.Done():
		return failure("SRV lookup for %s timed out", domain)
	}
}

func srvLookup(domain string) *Result {
	type serverConf struct {
		Hostname string
		Port     int
	}

	configs := map[string]*serverConf{
		"submission": {},
		"smtps":      {},
		"imaps":      {},
		"imap":       {},
	}

	var wg sync.WaitGroup
	for key, conf := range configs {
		wg.Add(1)
		go func(service string, conf *serverConf) {
			defer log.PanicHandler()
			defer wg.Done()

			_, srvList, err := lookupSRV(service, "tcp", domain)
			if err != nil || len(srvList) == 0 {
				return
			}
			srv := getPreferredSRV(srvList)
			srv.Target = strings.TrimRight(srv.Target, ".")
			if srv.Target == "" {
				return
			}
			if srv.Port == 0 {
				return
			}
			*conf = serverConf{
				Hostname: srv.Target,
				Port:     int(srv.Port),
			}
		}(key, conf)
	}
	wg.Wait()

	var smtp SMTP
	switch {
	case configs["submission"].Hostname != "":
		smtp = SMTP{
			Host:   configs["submission"].Hostname,
			Port:   configs["submission"].Port,
			Secure: false,
		}
	case configs["smtps"].Hostname != "":
		smtp = SMTP{
			Host:   configs["smtps"].Hostname,
			Port:   configs["smtps"].Port,
			Secure: true,
		}
	}

	var imap IMAP
	switch {
	case configs["imaps"].Hostname != "":
		imap = IMAP{
			Host: configs["imaps"].Hostname,
			Port: configs["imaps"].Port,
			TLS:  true,
		}
	case configs["imap"].Hostname != "":
		imap = IMAP{
			Host: configs["imap"].Hostname,
			Port: configs["imap"].Port,
			TLS:  false,
		}
	}

	var missing []string
	if smtp.Host == "" {
		missing = append(missing, "SMTP")
	}
	if imap.Host == "" {
		missing = append(missing, "IMAP")
	}
	if len(missing) > 0 {
		return failure("no %s service records for %s",
			strings.Join(missing, " or "), domain)
	}

	cfg := &Config{SMTP: smtp, IMAP: imap}
	log.Debugf("found SRV config: %#v", cfg)
	return success(SourceDNSSRV, cfg)
}

// getPreferredSRV picks the record with the lowest priority, breaking ties
// on the highest weight.
func getPreferredSRV(list []*net.SRV) *net.SRV {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority < list[j].Priority
	})

	best := list[0]
	for _, srv := range list[1:] {
		if srv.Priority != best.Priority {
			break
		}
		if srv.Weight > best.Weight {
			best = srv
		}
	}
	return best
}

var lookupSRV = net.LookupSRV
