// Package page defines the rendered-page capability the harvester drives and
// provides two implementations of it: a go-rod browser page and a static
// goquery document for pre-rendered HTML.
package page

import (
	"context"
	"errors"
	"time"

	"github.com/ysmood/gson"
)

// ErrUnsupported is returned by handles that cannot perform an operation,
// e.g. script evaluation on a static document.
var ErrUnsupported = errors.New("page: operation not supported by this handle")

// WaitMode selects what Navigate blocks on after the navigation commits.
type WaitMode int

const (
	// WaitNetworkIdle waits until no requests are in flight.
	WaitNetworkIdle WaitMode = iota
	// WaitLoad waits for the window load event.
	WaitLoad
	// WaitDOMStable waits until the DOM stops changing.
	WaitDOMStable
)

func (m WaitMode) String() string {
	switch m {
	case WaitNetworkIdle:
		return "network-idle"
	case WaitLoad:
		return "load"
	case WaitDOMStable:
		return "dom-stable"
	default:
		return "unknown"
	}
}

// Element is a reference to one node matched by Handle.QueryAll.
type Element interface {
	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)

	// Attribute returns the attribute value, or "" when it is absent.
	Attribute(ctx context.Context, name string) (string, error)
}

// Handle is a single navigable page. Implementations are not safe for
// concurrent use; the caller that opened a Handle owns it exclusively.
type Handle interface {
	// Navigate loads url and blocks according to mode, for at most timeout.
	Navigate(ctx context.Context, url string, mode WaitMode, timeout time.Duration) error

	// WaitForSelector waits up to timeout for at least one element matching
	// selector. A timeout is reported as (false, nil).
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// QueryAll returns every element currently matching selector. No match
	// is an empty slice, not an error.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Evaluate runs a JavaScript function expression against the current
	// document and returns its JSON result.
	Evaluate(ctx context.Context, script string, args ...any) (gson.JSON, error)

	// Close releases the page and everything acquired to create it.
	Close() error
}

// Opener acquires a fresh Handle.
type Opener interface {
	Open(ctx context.Context) (Handle, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Handle, error)

func (f OpenerFunc) Open(ctx context.Context) (Handle, error) { return f(ctx) }
