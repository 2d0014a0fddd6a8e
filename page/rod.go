package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/placeharvest/config"
	"github.com/use-agent/placeharvest/models"
	"github.com/ysmood/gson"
)

// RodOpener launches a Chromium instance per Open call and hands out a
// single page on it. Closing the handle kills the browser.
type RodOpener struct {
	cfg config.BrowserConfig
}

// NewRodOpener returns an Opener backed by go-rod.
func NewRodOpener(cfg config.BrowserConfig) *RodOpener {
	return &RodOpener{cfg: cfg}
}

// Open launches the browser, connects, and prepares the page.
//
// Order matters: stealth JS, headers and the hijack router must be installed
// before the first navigation or they do not apply to it. Anything acquired
// before a failure is released before the error is returned.
func (o *RodOpener) Open(ctx context.Context) (Handle, error) {
	l := launcher.New().
		Context(ctx).
		Headless(o.cfg.Headless).
		NoSandbox(o.cfg.NoSandbox)

	if o.cfg.BrowserBin != "" {
		l = l.Bin(o.cfg.BrowserBin)
	}
	if o.cfg.Proxy != "" {
		l = l.Proxy(o.cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", o.cfg.ViewportWidth, o.cfg.ViewportHeight))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeBrowserUnavailable, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", o.cfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewHarvestError(models.ErrCodeBrowserUnavailable, "failed to connect to browser", err)
	}

	p, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, models.NewHarvestError(models.ErrCodeBrowserUnavailable, "failed to create page", err)
	}

	h := &RodHandle{launcher: l, browser: browser, page: p}
	h.prepare(o.cfg)
	return h, nil
}

// RodHandle is a Handle over one rod page. It owns the browser process.
type RodHandle struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter

	closeOnce sync.Once
	closeErr  error
}

// prepare applies best-effort page settings. Failures are logged, never fatal.
func (h *RodHandle) prepare(cfg config.BrowserConfig) {
	if cfg.Stealth {
		if _, err := h.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if err := h.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("failed to set viewport", "error", err)
	}

	if cfg.UserAgent != "" {
		if err := h.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.AcceptLanguage,
		}); err != nil {
			slog.Warn("failed to override user agent", "error", err)
		}
	}

	if cfg.AcceptLanguage != "" {
		if err := setExtraHeaders(h.page, map[string]string{"Accept-Language": cfg.AcceptLanguage}); err != nil {
			slog.Warn("failed to set extra headers", "error", err)
		}
	}

	h.router = setupHijack(h.page, cfg.BlockedResourceTypes)
}

func (h *RodHandle) Navigate(ctx context.Context, url string, mode WaitMode, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := h.page.Context(ctx)

	// WaitRequestIdle relies on the Fetch domain, which the hijack router
	// already holds; with blocking enabled fall back to DOM stability.
	if mode == WaitNetworkIdle && h.router != nil {
		mode = WaitDOMStable
	}

	var waitIdle func()
	if mode == WaitNetworkIdle {
		// Must be registered before Navigate or in-flight requests are missed.
		waitIdle = p.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation failed")
	}

	switch mode {
	case WaitNetworkIdle:
		waitIdle()
	case WaitLoad:
		if err := p.WaitLoad(); err != nil {
			slog.Debug("load event not observed, proceeding with current DOM", "url", url, "error", err)
		}
	case WaitDOMStable:
		if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
			slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "url", url, "error", err)
		}
	}
	return nil
}

func (h *RodHandle) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := h.page.Context(wctx).WaitElementsMoreThan(selector, 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return false, nil
	default:
		return false, categorizeError(err, "waiting for selector failed")
	}
}

func (h *RodHandle) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := h.page.Context(ctx).Elements(selector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(err, "query interrupted")
		}
		return nil, models.NewHarvestError(models.ErrCodeExtraction, fmt.Sprintf("query %q failed", selector), err)
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = rodElement{el: el}
	}
	return out, nil
}

func (h *RodHandle) Evaluate(ctx context.Context, script string, args ...any) (gson.JSON, error) {
	res, err := h.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return gson.New(nil), models.NewHarvestError(models.ErrCodeExtraction, "script evaluation failed", err)
	}
	return res.Value, nil
}

// Close stops the hijack router, closes the page and kills the browser.
// It is idempotent.
func (h *RodHandle) Close() error {
	h.closeOnce.Do(func() {
		if h.router != nil {
			_ = h.router.Stop()
		}
		if err := h.page.Close(); err != nil {
			slog.Warn("cleanup: failed to close page", "error", err)
		}
		h.closeErr = h.browser.Close()
		h.launcher.Cleanup()
		slog.Info("browser closed")
	})
	return h.closeErr
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e rodElement) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// setExtraHeaders sends headers with every request the page makes.
func setExtraHeaders(c proto.Client, headers map[string]string) error {
	return proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(c)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed HarvestErrors.
func categorizeError(err error, msg string) *models.HarvestError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewHarvestError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewHarvestError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewHarvestError(models.ErrCodeNavigation, msg, err)
	}
}
