package harvest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ysmood/gson"

	"github.com/use-agent/placeharvest/page"
)

type fakeElement struct {
	text  string
	attrs map[string]string
	err   error
}

func (e fakeElement) Text(context.Context) (string, error) {
	return e.text, e.err
}

func (e fakeElement) Attribute(_ context.Context, name string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.attrs[name], nil
}

func link(href string) fakeElement {
	return fakeElement{attrs: map[string]string{"href": href}}
}

// fakePage maps a selector to the elements it matches.
type fakePage map[string][]fakeElement

// fakeHandle is a scripted page.Handle over a set of fake pages.
type fakeHandle struct {
	mu sync.Mutex

	pages       map[string]fakePage
	navErr      map[string]error
	queryErr    map[string]error // by selector
	panicOn     string           // selector that panics on query
	evaluate    func(script string, args ...any) (gson.JSON, error)
	current     string
	navigations []string
	closes      int
}

func newFakeHandle(pages map[string]fakePage) *fakeHandle {
	return &fakeHandle{pages: pages, navErr: map[string]error{}, queryErr: map[string]error{}}
}

func (h *fakeHandle) Navigate(_ context.Context, url string, _ page.WaitMode, _ time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.navigations = append(h.navigations, url)
	if err := h.navErr[url]; err != nil {
		return err
	}
	h.current = url
	return nil
}

func (h *fakeHandle) WaitForSelector(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	els, err := h.QueryAll(ctx, selector)
	return len(els) > 0, err
}

func (h *fakeHandle) QueryAll(_ context.Context, selector string) ([]page.Element, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if selector == h.panicOn {
		panic("boom")
	}
	if err := h.queryErr[selector]; err != nil {
		return nil, err
	}
	var out []page.Element
	for _, el := range h.pages[h.current][selector] {
		out = append(out, el)
	}
	return out, nil
}

func (h *fakeHandle) Evaluate(_ context.Context, script string, args ...any) (gson.JSON, error) {
	if h.evaluate == nil {
		return gson.New(nil), page.ErrUnsupported
	}
	return h.evaluate(script, args...)
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return nil
}

// sleepRecorder records every pause instead of sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	pauses []time.Duration
	onCall func(n int, d time.Duration) error
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	n := len(s.pauses)
	s.mu.Unlock()
	if s.onCall != nil {
		if err := s.onCall(n, d); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pauses {
		if p == d {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
