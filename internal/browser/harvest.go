// internal/browser/harvest.go
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// harvestObservation collects page text, URL and screenshot after a step has
// settled. Each component has its own retry loop; the observation fails only
// when a component stays unavailable through all retries.
func (s *Session) harvestObservation(ctx context.Context) (schemas.PageObservation, error) {
	var obs schemas.PageObservation

	if err := s.withObservationRetries(ctx, "web_text", func() error {
		text, err := s.capturePageText(ctx)
		if err != nil {
			return err
		}
		obs.WebText = text
		return nil
	}); err != nil {
		return schemas.PageObservation{}, err
	}

	if err := s.withObservationRetries(ctx, "url", func() error {
		var url string
		if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Location(&url)); err != nil {
			return err
		}
		obs.URL = url
		return nil
	}); err != nil {
		return schemas.PageObservation{}, err
	}

	if err := s.withObservationRetries(ctx, "screenshot", func() error {
		shot, err := s.captureScreenshot(ctx)
		if err != nil {
			return err
		}
		obs.ScreenshotB64 = shot
		return nil
	}); err != nil {
		return schemas.PageObservation{}, err
	}

	return obs, nil
}

func (s *Session) withObservationRetries(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.cfg.ObservationRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		s.logger.Warn("Observation harvest failed.",
			zap.String("component", what),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < s.cfg.ObservationRetries {
			if serr := sleepCtx(ctx, s.cfg.ObservationRetryDelay); serr != nil {
				return serr
			}
		}
	}
	return fmt.Errorf("harvesting %s: %w", what, err)
}

// capturePageText annotates interactive elements in the live DOM, then
// renders the page into the text form handed to the language models.
func (s *Session) capturePageText(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	var elements []InteractiveElement
	var rawHTML string
	if err := chromedp.Run(opCtx,
		chromedp.Evaluate(annotateScript, &elements),
		chromedp.OuterHTML("html", &rawHTML),
	); err != nil {
		return "", err
	}

	text, err := RenderPageText(rawHTML, elements, s.cfg.MaxWebTextLength)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *Session) captureScreenshot(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// settle gives dynamic pages a moment to re-render before harvesting.
func (s *Session) settle(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}
