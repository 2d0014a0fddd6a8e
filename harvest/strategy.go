package harvest

import (
	"context"
	"strings"

	"github.com/use-agent/placeharvest/models"
	"github.com/use-agent/placeharvest/page"
)

// Strategy is one way of reading a field from the current page. An absent
// element yields ""; an error means the page itself could not be queried.
type Strategy interface {
	Extract(ctx context.Context, h page.Handle) (string, error)
}

// Text reads the text of the first element matching Selector.
type Text struct {
	Selector string
}

func (s Text) Extract(ctx context.Context, h page.Handle) (string, error) {
	el, err := first(ctx, h, s.Selector)
	if err != nil || el == nil {
		return "", err
	}
	return el.Text(ctx)
}

// Attr reads attribute Name of the first element matching Selector.
type Attr struct {
	Selector string
	Name     string
}

func (s Attr) Extract(ctx context.Context, h page.Handle) (string, error) {
	el, err := first(ctx, h, s.Selector)
	if err != nil || el == nil {
		return "", err
	}
	return el.Attribute(ctx, s.Name)
}

// Label reads the accessible label of the first element matching Selector.
type Label struct {
	Selector string
}

func (s Label) Extract(ctx context.Context, h page.Handle) (string, error) {
	return Attr{Selector: s.Selector, Name: "aria-label"}.Extract(ctx, h)
}

// Joined reads the text of every element matching Selector, drops empty
// ones and joins the rest with Sep.
type Joined struct {
	Selector string
	Sep      string
}

func (s Joined) Extract(ctx context.Context, h page.Handle) (string, error) {
	els, err := h.QueryAll(ctx, s.Selector)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text(ctx)
		if err != nil {
			return "", err
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, s.Sep), nil
}

func first(ctx context.Context, h page.Handle, selector string) (page.Element, error) {
	els, err := h.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// Field is a record key and its fallback chain.
type Field struct {
	Key   string
	Chain []Strategy
}

// Evaluate returns the first non-empty trimmed value in the chain, or "" when
// every strategy comes up empty. The first handle error aborts the chain.
func (f Field) Evaluate(ctx context.Context, h page.Handle) (string, error) {
	for _, s := range f.Chain {
		v, err := s.Extract(ctx, h)
		if err != nil {
			return "", err
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// DefaultFields is the field set for Google Maps place pages.
func DefaultFields() []Field {
	return []Field{
		{Key: models.KeyName, Chain: []Strategy{Text{`h1.DUwDvf`}}},
		{Key: models.KeyRating, Chain: []Strategy{Text{`div.F7nice span[aria-hidden="true"]`}}},
		{Key: models.KeyReviewCount, Chain: []Strategy{
			Label{`div.F7nice span[aria-label*="reviews"]`},
			Label{`div.F7nice button[aria-label*="reviews"]`},
			Text{`div.F7nice span[aria-label*="reviews"]`},
		}},
		{Key: models.KeyCategory, Chain: []Strategy{Text{`button[jsaction*="category"]`}}},
		{Key: models.KeyAddress, Chain: []Strategy{
			Text{`button[data-item-id="address"] div.fontBodyMedium`},
			Text{`button[data-item-id="address"]`},
		}},
		{Key: models.KeyWebsite, Chain: []Strategy{Attr{`a[data-item-id="authority"]`, "href"}}},
		{Key: models.KeyPhone, Chain: []Strategy{
			Text{`button[data-item-id*="phone"] div.fontBodyMedium`},
			Text{`button[data-item-id*="phone"]`},
		}},
		{Key: models.KeyPlusCode, Chain: []Strategy{
			Text{`button[data-item-id="oloc"] div.fontBodyMedium`},
			Text{`button[data-item-id="oloc"]`},
		}},
		{Key: models.KeyHours, Chain: []Strategy{Label{`button[data-item-id*="hours"]`}}},
		{Key: models.KeyPriceLevel, Chain: []Strategy{Text{`span[aria-label*="Price"]`}}},
		{Key: models.KeyDescription, Chain: []Strategy{Text{`div.PYvSYb`}}},
		{Key: models.KeyAttributes, Chain: []Strategy{Joined{`div.LTs0Rc div.fontBodyMedium`, " | "}}},
		{Key: models.KeyPopularTimes, Chain: []Strategy{Text{`div.g2BVhd div.C7xf8b`}}},
	}
}
