package fetcher

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"regdoc-scraper/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserOptions configures the launched browser
type BrowserOptions struct {
	Headless    bool
	Bin         string // Chrome/Chromium binary, discovered when empty
	UserDataDir string // Falls back to BOT_DATA_DIR, then /tmp/regdoc-data
	SettleDelay time.Duration
}

// RodDriver implements Driver with rod (headless browser).
// It owns one browser and one page for the whole run.
type RodDriver struct {
	browser     *rod.Browser
	page        *rod.Page
	settleDelay time.Duration
	logger      *logger.Logger
}

// NewRodDriver launches a browser and opens the session page
func NewRodDriver(opts BrowserOptions, log *logger.Logger) (*RodDriver, error) {
	// Get user data directory from options or environment
	// This should be mounted as a volume to use disk instead of memory
	userDataDir := opts.UserDataDir
	if userDataDir == "" {
		userDataDir = os.Getenv("BOT_DATA_DIR")
	}
	if userDataDir == "" {
		userDataDir = "/tmp/regdoc-data"
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		log.Warn("failed to create browser data directory", "dir", userDataDir, "error", err)
		userDataDir = "" // Fall back to default if we can't create it
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		// Additional flags for Linux compatibility
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-breakpad").
		Set("disable-default-apps").
		Set("disable-hang-monitor").
		Set("disable-popup-blocking").
		Set("disable-prompt-on-repost").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees")

	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}

	if bin := findBrowserBin(opts.Bin); bin != "" {
		l = l.Bin(bin)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox || yum install -y chromium", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	settle := opts.SettleDelay
	if settle <= 0 {
		settle = time.Second
	}

	return &RodDriver{
		browser:     browser,
		page:        page,
		settleDelay: settle,
		logger:      log,
	}, nil
}

// findBrowserBin returns the configured binary or the first known Chrome/Chromium install
func findBrowserBin(configured string) string {
	if configured != "" {
		return configured
	}

	// Try Linux Chrome/Chromium paths
	paths := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}

	if username := os.Getenv("USERNAME"); username != "" {
		paths = append(paths, `C:\Users\`+username+`\AppData\Local\Google\Chrome\Application\chrome.exe`)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	// Let rod download a Chromium
	return ""
}

// Close closes the browser
func (d *RodDriver) Close() error {
	if d.browser != nil {
		return d.browser.Close()
	}
	return nil
}

// Navigate implements Driver
func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

// WaitForElement implements Driver
func (d *RodDriver) WaitForElement(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	page := d.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	el, err := findOne(page, loc)
	if err != nil {
		return nil, fmt.Errorf("element %q not found within %s: %w", loc, timeout, err)
	}
	return el.Context(ctx), nil
}

// WaitForAllElements implements Driver
func (d *RodDriver) WaitForAllElements(ctx context.Context, loc Locator, timeout time.Duration) ([]Element, error) {
	page := d.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	// Wait for the first match, then collect all of them
	if _, err := findOne(page, loc); err != nil {
		return nil, fmt.Errorf("elements %q not found within %s: %w", loc, timeout, err)
	}
	return d.FindAll(ctx, loc)
}

// FindAll implements Driver
func (d *RodDriver) FindAll(ctx context.Context, loc Locator) ([]Element, error) {
	page := d.page.Context(ctx)

	var (
		found rod.Elements
		err   error
	)
	if loc.By == ByXPath {
		found, err = page.ElementsX(loc.Value)
	} else {
		found, err = page.Elements(loc.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", loc, err)
	}
	return wrapElements(found), nil
}

// FindWithin implements Driver
func (d *RodDriver) FindWithin(ctx context.Context, el Element, loc Locator) ([]Element, error) {
	parent, err := asRod(ctx, el)
	if err != nil {
		return nil, err
	}

	var found rod.Elements
	if loc.By == ByXPath {
		found, err = parent.ElementsX(loc.Value)
	} else {
		found, err = parent.Elements(loc.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", loc, err)
	}
	return wrapElements(found), nil
}

// Click implements Driver
func (d *RodDriver) Click(ctx context.Context, el Element) error {
	target, err := asRod(ctx, el)
	if err != nil {
		return err
	}

	// Scroll to the element to ensure it's in view
	if err := target.ScrollIntoView(); err != nil {
		d.logger.Debug("scroll into view failed", "error", err)
	}
	if err := target.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}

	d.settle(ctx)
	return nil
}

// settle gives the page time to render whatever the last action triggered
func (d *RodDriver) settle(ctx context.Context) {
	page := d.page.Context(ctx).Timeout(10 * d.settleDelay)
	defer page.CancelTimeout()

	if err := page.WaitLoad(); err != nil {
		d.logger.Debug("page did not finish loading", "error", err)
	}
	if err := page.WaitStable(d.settleDelay / 2); err != nil {
		d.logger.Debug("page did not stabilize within timeout, continuing anyway", "error", err)
	}
}

// Text implements Driver
func (d *RodDriver) Text(ctx context.Context, el Element) (string, error) {
	target, err := asRod(ctx, el)
	if err != nil {
		return "", err
	}
	text, err := target.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

// Attribute implements Driver
func (d *RodDriver) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	target, err := asRod(ctx, el)
	if err != nil {
		return "", false, err
	}
	value, err := target.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// SelectOption implements Driver
func (d *RodDriver) SelectOption(ctx context.Context, el Element, value string) error {
	target, err := asRod(ctx, el)
	if err != nil {
		return err
	}
	selector := fmt.Sprintf(`option[value="%s"]`, strings.ReplaceAll(value, `"`, `\"`))
	if err := target.Select([]string{selector}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("failed to select option %q: %w", value, err)
	}

	d.settle(ctx)
	return nil
}

// TypeText implements Driver
func (d *RodDriver) TypeText(ctx context.Context, el Element, text string, submit bool) error {
	target, err := asRod(ctx, el)
	if err != nil {
		return err
	}
	if err := target.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear input: %w", err)
	}
	if err := target.Input(text); err != nil {
		return fmt.Errorf("failed to type into input: %w", err)
	}
	if submit {
		if err := target.Type(input.Enter); err != nil {
			return fmt.Errorf("failed to submit input: %w", err)
		}
		d.settle(ctx)
	}
	return nil
}

// CurrentURL implements Driver
func (d *RodDriver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func findOne(page *rod.Page, loc Locator) (*rod.Element, error) {
	if loc.By == ByXPath {
		return page.ElementX(loc.Value)
	}
	return page.Element(loc.Value)
}

func wrapElements(found rod.Elements) []Element {
	out := make([]Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out
}

func asRod(ctx context.Context, el Element) (*rod.Element, error) {
	target, ok := el.(*rod.Element)
	if !ok || target == nil {
		return nil, fmt.Errorf("element %T was not created by the rod driver", el)
	}
	return target.Context(ctx), nil
}
