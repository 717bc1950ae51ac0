// Package capture renders a page in headless Chrome and screenshots it.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Capturer returns a PNG of the fully rendered page at url.
type Capturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

type Chrome struct {
	Width   int
	Height  int
	Timeout time.Duration
	// Settle waits this long after load for late scripts.
	Settle time.Duration
}

func NewChrome() *Chrome {
	return &Chrome{Width: 1440, Height: 900, Timeout: 45 * time.Second, Settle: time.Second}
}

func (c *Chrome) Capture(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(c.Width, c.Height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, c.Timeout)
		defer cancel()
	}

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(c.Settle),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", url, err)
	}
	return buf, nil
}
