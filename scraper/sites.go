package scraper

import (
	"fmt"
	"sort"
	"time"
)

// Site names accepted in configuration
const (
	SiteECHA   = "echa"
	SiteEURLex = "eurlex"
)

// SiteOptions are passed to every site constructor
type SiteOptions struct {
	StartURL string
	Timeout  time.Duration
}

var siteFactories = map[string]func(SiteOptions) Site{
	SiteECHA: func(o SiteOptions) Site {
		return NewECHA(o.StartURL, o.Timeout)
	},
	SiteEURLex: func(o SiteOptions) Site {
		return NewEURLex(o.StartURL, o.Timeout)
	},
}

// Lookup returns the site registered under name
func Lookup(name string, opts SiteOptions) (Site, error) {
	factory, ok := siteFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown site %q (available: %v)", name, Names())
	}
	return factory(opts), nil
}

// Names lists the registered site names, sorted
func Names() []string {
	names := make([]string, 0, len(siteFactories))
	for name := range siteFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
