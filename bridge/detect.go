package bridge

import (
	"context"
	"slices"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/sophon-connect/metrics"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var log = logging.Logger("bridge")

// Matcher picks the announcement of the wanted provider.
type Matcher func(detail *types.AnnounceDetail) bool

// RDNSMatcher matches announcements carrying a provider under one of rdns.
func RDNSMatcher(rdns ...string) Matcher {
	return func(detail *types.AnnounceDetail) bool {
		if detail == nil || detail.Provider == nil || reflect2.IsNil(detail.Provider) {
			return false
		}
		return slices.Contains(rdns, detail.Info.RDNS)
	}
}

// DetectProvider asks every provider on target to announce itself and returns
// the first one accepted by match, or nil once timeout elapsed. It returns
// within timeout even when the request dispatch is still blocked.
func DetectProvider(ctx context.Context, target window.EventTarget, match Matcher, timeout time.Duration) (provider types.Provider, err error) {
	if target == nil || reflect2.IsNil(target) {
		return nil, types.ErrEventsUnsupported
	}

	start := time.Now()
	defer func() {
		result := "found"
		switch {
		case err != nil:
			result = "error"
		case provider == nil:
			result = "timeout"
		}
		_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.ResultKey, result)},
			metrics.DetectAttempt.M(1), metrics.DetectDuration.M(metrics.SinceInMilliseconds(start)))
	}()

	// buffered so announcers never wait on us while we dispatch the request
	announceCh := make(chan *window.Event, 16)
	sub, err := target.AddListener(window.EventAnnounceProvider, announceCh)
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// a listener that stops reading blocks Dispatch, it must not block detection
	dispatched := make(chan error, 1)
	go func() {
		dispatched <- target.Dispatch(window.EventRequestProvider, window.NewEvent(window.EventRequestProvider, nil))
	}()

	for {
		select {
		case err := <-dispatched:
			if err != nil {
				return nil, err
			}
			dispatched = nil
		case ev := <-announceCh:
			if ev != nil && match(ev.Detail) {
				return ev.Detail.Provider, nil
			}
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// WaitForProvider runs up to cfg.Retries+1 detections and returns the first provider found.
// Failed attempts count as not found.
func WaitForProvider(ctx context.Context, target window.EventTarget, match Matcher, cfg types.DetectConfig) types.Provider {
	attempts := cfg.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		provider, err := DetectProvider(ctx, target, match, cfg.Timeout)
		if err != nil {
			log.Debugf("detect provider attempt %d failed %v", i+1, err)
		} else if provider != nil {
			return provider
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}
