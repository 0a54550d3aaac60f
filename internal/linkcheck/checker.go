// Package linkcheck verifies that links in generated page bodies point at
// something the site actually contains: another content item, a page's
// output, or (optionally) a reachable external URL.
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/jasg/internal/content"
	"git.home.luguber.info/inful/jasg/internal/logfields"
	"git.home.luguber.info/inful/jasg/internal/markdown"
	"git.home.luguber.info/inful/jasg/internal/retry"
	"git.home.luguber.info/inful/jasg/internal/site"
)

// Options configures a Checker.
type Options struct {
	// External enables HTTP checks of absolute http(s) links.
	External bool
	// MaxConcurrent bounds concurrent page checks (default 4).
	MaxConcurrent int
	// Timeout applies to each external request (default 10s).
	Timeout time.Duration
	// Markdown controls how Markdown bodies are parsed.
	Markdown markdown.Options
	// Retry governs external requests that fail with a network error or a
	// 5xx status. A zero Policy means retry.DefaultPolicy.
	Retry retry.Policy
}

// Issue is one unresolved link.
type Issue struct {
	Page        string
	Destination string
	Reason      string
	Status      int
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Page, i.Destination, i.Reason)
}

// Report summarizes a check.
type Report struct {
	Pages  int
	Links  int
	Issues []Issue
}

// OK reports whether no issues were found.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Checker verifies page links against a Site.
type Checker struct {
	opts       Options
	httpClient *http.Client
}

// New creates a Checker.
func New(opts Options) *Checker {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	switch {
	case opts.Retry == (retry.Policy{}):
		opts.Retry = retry.DefaultPolicy()
	case opts.Retry.Validate() != nil:
		opts.Retry = retry.NewPolicy(opts.Retry.Mode, opts.Retry.Initial, opts.Retry.Max, opts.Retry.MaxRetries)
	}
	return &Checker{
		opts: opts,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// index is the set of paths a local link may resolve to.
type index struct {
	root    string
	outRoot string
	sources map[string]bool
	outputs map[string]bool
}

func newIndex(s *site.Site) index {
	idx := index{
		root:    s.Root(),
		outRoot: filepath.Join(s.Root(), s.Configuration().OutputDirectory()),
		sources: make(map[string]bool),
		outputs: make(map[string]bool),
	}
	for _, c := range s.Contents() {
		idx.sources[c.Path()] = true
		if out, ok := c.FrontMatter().GetString("output_path"); ok && out != "" {
			idx.outputs[filepath.Clean(out)] = true
		}
	}
	return idx
}

// resolves reports whether target exists as a source file or page output,
// relative to the page's source directory or its output directory. A
// leading slash is relative to the site root.
func (idx index) resolves(page content.Content, target string) bool {
	native := filepath.FromSlash(target)
	var candidates []string
	if strings.HasPrefix(target, "/") {
		candidates = append(candidates, filepath.Join(idx.root, native), filepath.Join(idx.outRoot, native))
	} else {
		candidates = append(candidates, filepath.Join(filepath.Dir(page.Path()), native))
		if out, ok := page.FrontMatter().GetString("output_path"); ok && out != "" {
			candidates = append(candidates, filepath.Join(filepath.Dir(out), native))
		}
	}
	for _, c := range candidates {
		if idx.sources[c] || idx.outputs[c] {
			return true
		}
		if strings.HasSuffix(target, "/") || filepath.Ext(c) == "" {
			if idx.outputs[filepath.Join(c, "index.html")] {
				return true
			}
		}
	}
	return false
}

// Check verifies every page in s. It only fails for context cancellation;
// unreadable bodies are reported as issues.
func (c *Checker) Check(ctx context.Context, s *site.Site) (Report, error) {
	idx := newIndex(s)
	pages := s.Pages()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = Report{Pages: len(pages)}
	)
	sem := make(chan struct{}, c.opts.MaxConcurrent)

	for _, page := range pages {
		select {
		case <-ctx.Done():
			wg.Wait()
			return report, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(page content.Content) {
			defer wg.Done()
			defer func() { <-sem }()
			links, issues := c.checkPage(ctx, idx, page)
			mu.Lock()
			report.Links += links
			report.Issues = append(report.Issues, issues...)
			mu.Unlock()
		}(page)
	}
	wg.Wait()

	sort.Slice(report.Issues, func(i, j int) bool {
		if report.Issues[i].Page != report.Issues[j].Page {
			return report.Issues[i].Page < report.Issues[j].Page
		}
		return report.Issues[i].Destination < report.Issues[j].Destination
	})
	if err := ctx.Err(); err != nil {
		return report, err
	}
	slog.Info("Link check completed", logfields.Count(report.Links), slog.Int("issues", len(report.Issues)))
	return report, nil
}

func (c *Checker) checkPage(ctx context.Context, idx index, page content.Content) (int, []Issue) {
	tpl := page.Template()
	body, err := tpl.Contents()
	if err != nil {
		return 0, []Issue{{Page: page.Path(), Reason: fmt.Sprintf("read body: %v", err)}}
	}
	links, err := extractLinks(tpl.Format(), body, c.opts.Markdown)
	if err != nil {
		return 0, []Issue{{Page: page.Path(), Reason: fmt.Sprintf("parse body: %v", err)}}
	}
	slog.Debug("Extracted links from page", logfields.Path(page.Path()), logfields.Count(len(links)))

	var issues []Issue
	for _, l := range links {
		if ctx.Err() != nil {
			break
		}
		if !shouldVerify(l) {
			continue
		}
		if l.IsLocal() {
			if !idx.resolves(page, l.Target()) {
				issues = append(issues, Issue{Page: page.Path(), Destination: l.Destination, Reason: "no such page or file"})
			}
			continue
		}
		if c.opts.External && isHTTP(l.Destination) {
			if status, err := c.checkExternalLink(ctx, l.Destination); err != nil {
				issues = append(issues, Issue{Page: page.Path(), Destination: l.Destination, Reason: err.Error(), Status: status})
			}
		}
	}
	return len(links), issues
}

func shouldVerify(l markdown.Link) bool {
	d := strings.TrimSpace(l.Destination)
	if d == "" || strings.HasPrefix(d, "#") || isTemplateExpression(d) {
		return false
	}
	for _, p := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(d, p) {
			return false
		}
	}
	return true
}

func isHTTP(dest string) bool {
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://")
}

// checkExternalLink tries HEAD and falls back to GET for servers that do
// not implement HEAD. Network errors and 5xx responses are retried.
func (c *Checker) checkExternalLink(ctx context.Context, linkURL string) (int, error) {
	var status int
	err := c.opts.Retry.Do(ctx, func(attempt int) error {
		var err error
		status, err = c.request(ctx, http.MethodHead, linkURL)
		if err == nil && (status == http.StatusNotFound || status == http.StatusMethodNotAllowed) {
			status, err = c.request(ctx, http.MethodGet, linkURL)
		}
		if err != nil {
			if attempt > 0 {
				slog.Debug("External link retry failed", logfields.URL(linkURL), slog.Int("attempt", attempt), logfields.Error(err))
			}
			return err
		}
		switch {
		case isAuthError(status) || status == http.StatusTooManyRequests:
			return nil
		case status >= 500:
			return fmt.Errorf("HTTP %d", status)
		case status >= 400:
			return &retry.Permanent{Err: fmt.Errorf("HTTP %d", status)}
		}
		return nil
	})
	if err != nil {
		return status, err
	}
	return status, nil
}

func (c *Checker) request(ctx context.Context, method, linkURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, linkURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "jasg-linkcheck/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// isAuthError covers statuses that mean the URL exists but needs credentials.
func isAuthError(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
