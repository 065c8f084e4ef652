package proxy

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped.
const DefaultCooldown = 5 * time.Minute

// Pool rotates through proxies round robin, skipping ones that failed
// within the cooldown window.
type Pool struct {
	proxies  []string
	index    int
	cooldown time.Duration
	mu       sync.Mutex
	failed   map[string]time.Time
	now      func() time.Time
}

// NewPool validates proxies and creates a pool. Entries without a scheme
// are taken as http proxies.
func NewPool(proxies []string, cooldown time.Duration) (*Pool, error) {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	clean := make([]string, 0, len(proxies))
	for _, p := range proxies {
		u, err := Parse(p)
		if err != nil {
			return nil, err
		}
		clean = append(clean, u.String())
	}
	return &Pool{
		proxies:  clean,
		cooldown: cooldown,
		failed:   make(map[string]time.Time),
		now:      time.Now,
	}, nil
}

// Parse normalizes a proxy address into a URL.
func Parse(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + raw)
	}
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q", raw)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("invalid proxy %q: unsupported scheme %s", raw, u.Scheme)
	}
	return u, nil
}

// Len returns the number of configured proxies.
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy, or "" for a direct connection.
// When every proxy is cooling down the next one in rotation is used anyway.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[proxy]; ok {
			if p.now().Sub(failTime) < p.cooldown {
				if p.index == start {
					return proxy
				}
				continue
			}
			delete(p.failed, proxy)
		}
		return proxy
	}
}

// MarkFailed puts proxy on cooldown.
func (p *Pool) MarkFailed(proxy string) {
	if proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}
