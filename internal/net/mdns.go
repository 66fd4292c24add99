package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service a MangaSketch guide server announces.
const ServiceType = "_mangasketch._tcp"

// Advertise announces a guide server on port until the returned server is
// shut down.
func Advertise(port int, info ...string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if len(info) == 0 {
		info = []string{"MangaSketch guide server"}
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Discover returns the base URL of the first guide server that answers
// within timeout.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			if url, ok := entryURL(e); ok {
				select {
				case found <- url:
				default:
				}
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	done := make(chan error, 1)
	go func() {
		done <- mdns.Query(params)
		close(entries)
	}()

	select {
	case url := <-found:
		return url, nil
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("mdns query: %w", err)
		}
		select {
		case url := <-found:
			return url, nil
		default:
			return "", fmt.Errorf("no %s service found", ServiceType)
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func entryURL(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return "http://" + net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)), true
}
