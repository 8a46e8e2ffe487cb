package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"netinventory/internal/adapter"
	"netinventory/internal/config"
	"netinventory/internal/domain"
	"netinventory/internal/repository"
)

// ErrScanInProgress is returned when the caller gave up waiting for a running scan
var ErrScanInProgress = errors.New("scan already in progress")

// ScanService runs scans and records their results in the inventory
type ScanService struct {
	prober adapter.Prober
	store  repository.Store
	events *EventBus
	logger zerolog.Logger

	defaultRange  string
	fallbackRange string
	timeout       time.Duration

	privileged    func() bool
	detectNetwork func() (string, error)

	scanSlot *semaphore.Weighted
	quick    singleflight.Group
}

// ScanOption configures a ScanService
type ScanOption func(*ScanService)

// WithScanConfig applies range and timeout settings from the config file
func WithScanConfig(cfg config.ScanConfig) ScanOption {
	return func(s *ScanService) {
		s.defaultRange = cfg.DefaultRange
		if cfg.FallbackRange != "" {
			s.fallbackRange = cfg.FallbackRange
		}
		s.timeout = cfg.Timeout.Duration()
	}
}

// WithEventBus publishes scan lifecycle events to bus
func WithEventBus(bus *EventBus) ScanOption {
	return func(s *ScanService) {
		s.events = bus
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ScanOption {
	return func(s *ScanService) {
		s.logger = logger
	}
}

// WithPrivilegeCheck replaces the effective-uid check used to pick a profile
func WithPrivilegeCheck(fn func() bool) ScanOption {
	return func(s *ScanService) {
		s.privileged = fn
	}
}

// WithNetworkDetector replaces local subnet detection
func WithNetworkDetector(fn func() (string, error)) ScanOption {
	return func(s *ScanService) {
		s.detectNetwork = fn
	}
}

// NewScanService creates a new scan service
func NewScanService(prober adapter.Prober, store repository.Store, opts ...ScanOption) *ScanService {
	s := &ScanService{
		prober:        prober,
		store:         store,
		logger:        zerolog.Nop(),
		fallbackRange: config.DefaultFallbackRange,
		privileged:    adapter.IsPrivileged,
		detectNetwork: adapter.DetectLocalNetwork,
		scanSlot:      semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ResolveRange returns the range to scan: the explicit one, the configured
// default, the detected local /24, or the fallback, in that order.
func (s *ScanService) ResolveRange(networkRange string) string {
	if r := strings.TrimSpace(networkRange); r != "" {
		return r
	}
	if s.defaultRange != "" {
		return s.defaultRange
	}

	detected, err := s.detectNetwork()
	if err != nil {
		s.logger.Debug().Err(err).Str("fallback", s.fallbackRange).Msg("Local network detection failed, using fallback")
		return s.fallbackRange
	}
	return detected
}

// RunScan probes the range, classifies each host, and saves a scan session.
// Probe and persistence failures are reported in the result; the returned
// error is ErrScanInProgress when ctx ends while another scan holds the slot.
// Once the slot is held, ctx only carries values: the scan and its save are
// bounded by the configured timeout, not by the caller going away.
func (s *ScanService) RunScan(ctx context.Context, networkRange string) (domain.ScanResult, error) {
	target := s.ResolveRange(networkRange)

	if err := s.scanSlot.Acquire(ctx, 1); err != nil {
		return domain.ScanResult{}, fmt.Errorf("%w: %v", ErrScanInProgress, err)
	}
	defer s.scanSlot.Release(1)

	profile := adapter.SelectProfile(s.privileged())
	log := s.logger.With().Str("network_range", target).Str("profile", string(profile)).Logger()

	log.Info().Msg("Starting network scan")
	s.publish(EventScanStarted, map[string]string{
		"network_range": target,
		"profile":       string(profile),
	})

	runCtx := context.WithoutCancel(ctx)
	probeCtx := runCtx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(runCtx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	hosts, err := s.prober.Probe(probeCtx, target, profile)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		log.Error().Err(err).Msg("Network scan failed")
		return s.failed(target, err), nil
	}

	observations := adapter.NormalizeAll(hosts)

	sessionID, err := s.store.SaveScanSession(runCtx, target, observations, elapsed)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save scan session")
		return s.failed(target, err), nil
	}

	result := domain.ScanResult{
		Success:         true,
		SessionID:       sessionID,
		DevicesFound:    len(observations),
		DurationSeconds: roundSeconds(elapsed),
		NetworkRange:    target,
	}

	log.Info().
		Int64("session_id", sessionID).
		Int("devices_found", result.DevicesFound).
		Float64("duration_seconds", result.DurationSeconds).
		Msg("Network scan complete")
	s.publish(EventScanCompleted, result)

	return result, nil
}

// QuickScan runs host discovery only and persists nothing.
// Concurrent quick scans of the same range share one engine run. The shared
// run is not cancelled by any one caller; each caller stops waiting when its
// own ctx ends.
func (s *ScanService) QuickScan(ctx context.Context, networkRange string) ([]domain.QuickScanHost, error) {
	target := s.ResolveRange(networkRange)

	ch := s.quick.DoChan(target, func() (interface{}, error) {
		probeCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			probeCtx, cancel = context.WithTimeout(probeCtx, s.timeout)
			defer cancel()
		}

		hosts, err := s.prober.Discover(probeCtx, target)
		if err != nil {
			return nil, err
		}
		return adapter.QuickScanHosts(hosts), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("quick scan of %s: %w", target, ctx.Err())
	}

	if res.Err != nil {
		s.logger.Error().Err(res.Err).Str("network_range", target).Msg("Quick scan failed")
		return nil, fmt.Errorf("quick scan of %s: %w", target, res.Err)
	}

	hosts := res.Val.([]domain.QuickScanHost)
	if !res.Shared {
		s.logger.Info().Str("network_range", target).Int("hosts_found", len(hosts)).Msg("Quick scan complete")
	}
	s.publish(EventQuickScanCompleted, map[string]interface{}{
		"network_range": target,
		"hosts_found":   len(hosts),
	})

	return hosts, nil
}

func (s *ScanService) failed(target string, err error) domain.ScanResult {
	result := domain.ScanResult{
		Success:      false,
		Error:        err.Error(),
		NetworkRange: target,
	}
	s.publish(EventScanFailed, result)
	return result
}

func (s *ScanService) publish(eventType EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(NewEvent(eventType, payload))
}

// roundSeconds rounds to two decimal places
func roundSeconds(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}
