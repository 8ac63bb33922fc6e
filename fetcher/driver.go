package fetcher

import (
	"context"
	"time"
)

// By selects how a Locator value is interpreted
type By int

const (
	// ByCSS locates elements with a CSS selector
	ByCSS By = iota
	// ByXPath locates elements with an XPath expression
	ByXPath
)

// Locator identifies elements on the current page
type Locator struct {
	By    By
	Value string
}

// CSS builds a CSS locator
func CSS(selector string) Locator {
	return Locator{By: ByCSS, Value: selector}
}

// XPath builds an XPath locator
func XPath(expr string) Locator {
	return Locator{By: ByXPath, Value: expr}
}

// String returns the locator value
func (l Locator) String() string {
	return l.Value
}

// Element is an opaque handle to an element owned by the Driver that returned it
type Element interface{}

// Driver performs abstract page commands against a live browser session.
// Waits are bounded by the given timeout; running out of time is an error.
type Driver interface {
	// Navigate loads url in the session page and waits for it to load
	Navigate(ctx context.Context, url string) error
	// WaitForElement waits until one element matching loc is present
	WaitForElement(ctx context.Context, loc Locator, timeout time.Duration) (Element, error)
	// WaitForAllElements waits until at least one element matches loc and returns all matches
	WaitForAllElements(ctx context.Context, loc Locator, timeout time.Duration) ([]Element, error)
	// FindAll returns the current matches for loc without waiting, possibly none
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	// FindWithin returns matches for loc below el without waiting
	FindWithin(ctx context.Context, el Element, loc Locator) ([]Element, error)
	// Click clicks el and lets the page settle
	Click(ctx context.Context, el Element) error
	// Text returns the visible text of el
	Text(ctx context.Context, el Element) (string, error)
	// Attribute returns the value of attribute name and whether it is present
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	// SelectOption selects the option with the given value in a select element
	SelectOption(ctx context.Context, el Element, value string) error
	// TypeText replaces the content of an input, optionally pressing Enter afterwards
	TypeText(ctx context.Context, el Element, text string, submit bool) error
	// CurrentURL returns the URL of the session page
	CurrentURL(ctx context.Context) (string, error)
	// Close releases the browser session
	Close() error
}
