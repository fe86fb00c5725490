package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

const defaultDeliveryTimeout = 5 * time.Second

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
	log        logger.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher, log logger.Logger) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp, log: logger.Ensure(log), timeout: defaultDeliveryTimeout}
}

// Publish forwards the event to every registered publisher.
// It returns the number of publishers that successfully handled the event.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Go publishes evt in the background with its own deadline so a slow sink
// never delays a reply. Failures are logged, not returned.
func (f *Fanout) Go(evt Event) {
	if f == nil || len(f.publishers) == 0 {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()

		delivered, err := f.Publish(ctx, evt)
		if err != nil {
			f.log.WarnObj("event delivery failed", "publisher_error", map[string]any{
				"event_id":  evt.ID,
				"delivered": delivered,
				"error":     err.Error(),
			})
			return
		}
		f.log.DebugObj("event delivered", "publisher_delivery", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
		})
	}()
}

// Close waits for background deliveries and releases publishers that hold
// connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	f.wg.Wait()

	var errs []error
	for _, p := range f.publishers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
