// Package rod rasterizes cards with a headless Chrome driven by go-rod.
//
// One browser is launched at startup and shared; every export opens its own
// incognito page, so concurrent exports never see each other's state.
package rod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sakif/business-cards/internal/rasterizer"
)

// Config controls the browser.
type Config struct {
	// Bin is the Chrome/Chromium binary. Empty lets rod find or download one.
	Bin string
	// ControlURL attaches to an already running browser instead of launching.
	ControlURL string
	// Timeout bounds a single export.
	Timeout time.Duration
	// Scale is the device pixel ratio of captures.
	Scale float64
}

func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,
		Scale:   2,
	}
}

// Rasterizer implements rasterizer.Rasterizer with a shared browser.
type Rasterizer struct {
	browser *rod.Browser
	config  Config
	logger  *slog.Logger
}

var _ rasterizer.Rasterizer = (*Rasterizer)(nil)

// New launches (or attaches to) a browser.
func New(cfg Config, logger *slog.Logger) (*Rasterizer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultConfig().Scale
	}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("rod: launching browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("rod: connecting to browser: %w", err)
	}

	logger.Info("headless browser ready", slog.String("control_url", controlURL))

	return &Rasterizer{browser: browser, config: cfg, logger: logger}, nil
}

// Close shuts the browser down.
func (r *Rasterizer) Close() error {
	return r.browser.Close()
}

// Rasterize loads the document into a fresh page and captures the element
// matched by req.Selector (the whole page when the selector is empty).
func (r *Rasterizer) Rasterize(ctx context.Context, req rasterizer.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("rod: incognito context: %w", err)
	}
	defer incognito.Close()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("rod: creating page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             req.WidthOrDefault(),
		Height:            800,
		DeviceScaleFactor: r.config.Scale,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("rod: setting viewport: %w", err)
	}

	if err := page.SetDocumentContent(req.Document); err != nil {
		return nil, fmt.Errorf("rod: loading document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("rod: waiting for load: %w", err)
	}

	var png []byte
	if req.Selector == "" {
		png, err = page.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	} else {
		el, elErr := page.Element(req.Selector)
		if elErr != nil {
			return nil, fmt.Errorf("rod: finding %s: %w", req.Selector, elErr)
		}
		png, err = el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("rod: capturing screenshot: %w", err)
	}

	if !rasterizer.IsPNG(png) {
		return nil, errors.New("rod: browser returned a non-PNG capture")
	}

	r.logger.Debug("card rasterized", slog.Int("bytes", len(png)))
	return png, nil
}
