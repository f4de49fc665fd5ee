// internal/browser/actions.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// wfidSelector addresses an element by the numeric id the annotation script
// stamped onto it during the last harvest.
func wfidSelector(id int) string {
	return fmt.Sprintf(`[data-wfid="%d"]`, id)
}

// executeWithRetry runs one elementary action, retrying failures at a fixed
// delay. Unknown action variants are never retried.
func (s *Session) executeWithRetry(ctx context.Context, action schemas.Action) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.cfg.ActionRetryDelay),
			uint64(s.cfg.ActionRetries-1),
		),
		ctx,
	)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := s.dispatch(ctx, action)
		if err != nil {
			s.logger.Warn("Browser action failed.",
				zap.String("action", string(action.Kind())),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}, policy)
}

// dispatch executes a single action variant. The switch is exhaustive over
// the closed action set; anything else is a permanent error.
func (s *Session) dispatch(ctx context.Context, action schemas.Action) error {
	timeout := s.cfg.ActionTimeout

	switch a := action.(type) {
	case schemas.ClickAction:
		if a.WaitBeforeSeconds > 0 {
			if err := sleepCtx(ctx, secondsToDuration(a.WaitBeforeSeconds)); err != nil {
				return backoff.Permanent(err)
			}
		}
		return s.run(ctx, timeout,
			chromedp.WaitVisible(wfidSelector(a.WFID)),
			chromedp.Click(wfidSelector(a.WFID)),
		)

	case schemas.TypeAction:
		sel := wfidSelector(a.WFID)
		return s.run(ctx, timeout,
			chromedp.WaitVisible(sel),
			chromedp.Clear(sel),
			chromedp.SendKeys(sel, a.Content),
		)

	case schemas.GotoURLAction:
		navTimeout := s.cfg.NavigationTimeout
		if a.TimeoutSeconds > 0 {
			navTimeout = secondsToDuration(a.TimeoutSeconds)
		}
		return s.navigate(ctx, a.Website, navTimeout)

	case schemas.EnterTextAndClickAction:
		textSel := wfidSelector(a.TextWFID)
		clickSel := wfidSelector(a.ClickWFID)
		if err := s.run(ctx, timeout,
			chromedp.WaitVisible(textSel),
			chromedp.Clear(textSel),
			chromedp.SendKeys(textSel, a.Text),
		); err != nil {
			return fmt.Errorf("entering text: %w", err)
		}
		wait := a.WaitBefore
		if wait <= 0 {
			wait = 2
		}
		if err := sleepCtx(ctx, secondsToDuration(wait)); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.run(ctx, timeout,
			chromedp.WaitVisible(clickSel),
			chromedp.Click(clickSel),
		); err != nil {
			return fmt.Errorf("clicking after text entry: %w", err)
		}
		return nil

	case schemas.ScrollAction:
		script := scrollScript(a.Direction)
		return s.run(ctx, timeout, chromedp.Evaluate(script, nil))

	case schemas.HoverAction:
		sel := wfidSelector(a.WFID)
		return s.run(ctx, timeout,
			chromedp.WaitVisible(sel),
			chromedp.Evaluate(fmt.Sprintf(
				`document.querySelector(%q).dispatchEvent(new MouseEvent("mouseover", {bubbles: true}))`, sel), nil),
		)

	case schemas.NewTabAction:
		// The session drives a single tab; a "new tab" resets it to the
		// homepage, which matches how trajectories are replayed.
		return s.navigate(ctx, s.cfg.Homepage, s.cfg.NavigationTimeout)

	case schemas.GoBackAction:
		return s.run(ctx, timeout, chromedp.NavigateBack())

	case schemas.GoForwardAction:
		return s.run(ctx, timeout, chromedp.NavigateForward())

	case schemas.PageCloseAction:
		return s.run(ctx, timeout, chromedp.ActionFunc(func(cctx context.Context) error {
			return page.Close().Do(cctx)
		}))

	case schemas.KeyPressAction:
		key, mods, err := ParseKeySpec(a.KeySpec)
		if err != nil {
			return backoff.Permanent(err)
		}
		var opts []chromedp.KeyOption
		if mods != 0 {
			opts = append(opts, chromedp.KeyModifiers(mods))
		}
		return s.run(ctx, timeout, chromedp.KeyEvent(key, opts...))

	case schemas.StopAction:
		// Stop performs no browser work; the search layer interprets it.
		return nil

	default:
		return backoff.Permanent(fmt.Errorf("unsupported action type %q", action.Kind()))
	}
}

func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := s.opContext(ctx, timeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

func scrollScript(direction string) string {
	op := "+"
	if direction == "up" {
		op = "-"
	}
	return fmt.Sprintf(
		`(document.scrollingElement || document.body).scrollTop = (document.scrollingElement || document.body).scrollTop %s window.innerHeight;`, op)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
