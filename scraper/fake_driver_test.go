package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"regdoc-scraper/fetcher"
)

var errTimeout = errors.New("timed out")

// fakeElement is a scripted element. Children are keyed by locator value.
type fakeElement struct {
	text     string
	attrs    map[string]string
	children map[string][]*fakeElement
	onClick  func(d *fakeDriver) error
}

// fakeDriver serves elements by locator value. Each entry of pages is the DOM of
// one result page; static holds elements present on every page.
type fakeDriver struct {
	pages   []map[string][]*fakeElement
	static  map[string][]*fakeElement
	current int

	navigated []string
	typed     []string
	selected  []string
	clicks    int
	closed    bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{static: map[string][]*fakeElement{}}
}

func (d *fakeDriver) lookup(loc fetcher.Locator) []*fakeElement {
	// XPath unions match whatever any branch matches
	if parts := strings.Split(loc.Value, " | "); len(parts) > 1 {
		var found []*fakeElement
		for _, part := range parts {
			found = append(found, d.lookup(fetcher.Locator{By: loc.By, Value: part})...)
		}
		return found
	}
	if d.current < len(d.pages) {
		if found, ok := d.pages[d.current][loc.Value]; ok {
			return found
		}
	}
	return d.static[loc.Value]
}

func toElements(found []*fakeElement) []fetcher.Element {
	out := make([]fetcher.Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	d.current = 0
	return nil
}

func (d *fakeDriver) WaitForElement(_ context.Context, loc fetcher.Locator, _ time.Duration) (fetcher.Element, error) {
	found := d.lookup(loc)
	if len(found) == 0 {
		return nil, fmt.Errorf("%q: %w", loc, errTimeout)
	}
	return found[0], nil
}

func (d *fakeDriver) WaitForAllElements(_ context.Context, loc fetcher.Locator, _ time.Duration) ([]fetcher.Element, error) {
	found := d.lookup(loc)
	if len(found) == 0 {
		return nil, fmt.Errorf("%q: %w", loc, errTimeout)
	}
	return toElements(found), nil
}

func (d *fakeDriver) FindAll(_ context.Context, loc fetcher.Locator) ([]fetcher.Element, error) {
	return toElements(d.lookup(loc)), nil
}

func (d *fakeDriver) FindWithin(_ context.Context, el fetcher.Element, loc fetcher.Locator) ([]fetcher.Element, error) {
	return toElements(el.(*fakeElement).children[loc.Value]), nil
}

func (d *fakeDriver) Click(_ context.Context, el fetcher.Element) error {
	d.clicks++
	if fe := el.(*fakeElement); fe.onClick != nil {
		return fe.onClick(d)
	}
	return nil
}

func (d *fakeDriver) Text(_ context.Context, el fetcher.Element) (string, error) {
	return el.(*fakeElement).text, nil
}

func (d *fakeDriver) Attribute(_ context.Context, el fetcher.Element, name string) (string, bool, error) {
	value, ok := el.(*fakeElement).attrs[name]
	return value, ok, nil
}

func (d *fakeDriver) SelectOption(_ context.Context, _ fetcher.Element, value string) error {
	d.selected = append(d.selected, value)
	return nil
}

func (d *fakeDriver) TypeText(_ context.Context, _ fetcher.Element, text string, _ bool) error {
	d.typed = append(d.typed, text)
	return nil
}

func (d *fakeDriver) CurrentURL(_ context.Context) (string, error) {
	return fmt.Sprintf("fake://page/%d", d.current+1), nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

// nextLink is a next-page control that advances the fake driver
func nextLink(attrs map[string]string) *fakeElement {
	return &fakeElement{
		text:  "Next",
		attrs: attrs,
		onClick: func(d *fakeDriver) error {
			d.current++
			return nil
		},
	}
}
