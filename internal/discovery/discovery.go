// Package discovery announces the relay over mDNS and lets clients find it
// on the local network without configuration.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType = "_resonance._tcp"
	domain      = "local."
)

// Advertise registers the relay on the local network. The returned server
// must be shut down on exit.
func Advertise(instance string, port int) (*zeroconf.Server, error) {
	server, err := zeroconf.Register(
		instance,
		serviceType,
		domain,
		port,
		[]string{"role=relay"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("register mdns service: %w", err)
	}
	return server, nil
}

// Lookup browses the local network and returns the host:port of the first
// relay that answers before ctx expires.
func Lookup(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("create mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Browse(ctx, serviceType, domain, entries); err != nil {
		return "", fmt.Errorf("browse mdns: %w", err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", errors.New("no relay found on the local network")
			}
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			return fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
