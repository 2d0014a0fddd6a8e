package page

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ysmood/gson"
	"golang.org/x/net/html"
)

// StaticOpener opens handles over pre-rendered HTML. Nothing is executed:
// what the fetcher returns is the DOM.
type StaticOpener struct {
	fetcher Fetcher
}

// NewStaticOpener returns an Opener whose handles load pages through f.
func NewStaticOpener(f Fetcher) *StaticOpener {
	return &StaticOpener{fetcher: f}
}

func (o *StaticOpener) Open(_ context.Context) (Handle, error) {
	return NewStaticHandle(o.fetcher), nil
}

// StaticHandle is a Handle over a parsed HTML document.
type StaticHandle struct {
	fetcher Fetcher

	mu     sync.Mutex
	doc    *goquery.Document
	closed bool
}

// NewStaticHandle creates a handle with no document loaded.
func NewStaticHandle(f Fetcher) *StaticHandle {
	return &StaticHandle{fetcher: f}
}

func (h *StaticHandle) Navigate(ctx context.Context, url string, _ WaitMode, timeout time.Duration) error {
	if err := h.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return categorizeError(err, "navigation failed")
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return categorizeError(err, "failed to parse page HTML")
	}

	doc := goquery.NewDocumentFromNode(root)
	h.mu.Lock()
	h.doc = doc
	h.mu.Unlock()
	return nil
}

// WaitForSelector checks the loaded document once; a static DOM never changes.
func (h *StaticHandle) WaitForSelector(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	sel, err := h.find(selector)
	if err != nil {
		return false, err
	}
	return sel.Length() > 0, nil
}

func (h *StaticHandle) QueryAll(_ context.Context, selector string) ([]Element, error) {
	sel, err := h.find(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, staticElement{sel: s})
	})
	return out, nil
}

// Evaluate is not available without a script engine.
func (h *StaticHandle) Evaluate(context.Context, string, ...any) (gson.JSON, error) {
	return gson.New(nil), ErrUnsupported
}

func (h *StaticHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.doc = nil
	return nil
}

func (h *StaticHandle) checkOpen() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("page: handle is closed")
	}
	return nil
}

// find compiles selector with cascadia so malformed selectors surface as
// errors instead of silently matching nothing.
func (h *StaticHandle) find(selector string) (*goquery.Selection, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("page: invalid selector %q: %w", selector, err)
	}

	h.mu.Lock()
	doc := h.doc
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return nil, fmt.Errorf("page: handle is closed")
	}
	if doc == nil {
		return nil, fmt.Errorf("page: no document loaded")
	}
	return doc.FindMatcher(m), nil
}

type staticElement struct {
	sel *goquery.Selection
}

func (e staticElement) Text(context.Context) (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e staticElement) Attribute(_ context.Context, name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}
