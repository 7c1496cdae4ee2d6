package hass

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/hassmesh/backend"
	"github.com/hupe1980/hassmesh/device"
	"github.com/hupe1980/hassmesh/intent"
	"github.com/hupe1980/hassmesh/logging"
)

// NotConnectedMessage is returned when the orchestrator has no backend.
const NotConnectedMessage = "Home Assistant is not connected"

// DefaultRefreshTimeout bounds a live context refresh on the control path.
const DefaultRefreshTimeout = 10 * time.Second

// Options configures an Orchestrator.
type Options struct {
	// Prefix is prepended to every backend tool name (see backend.DetectPrefix).
	Prefix string
	// CacheTTL is the device cache freshness window.
	CacheTTL time.Duration
	// RefreshTimeout bounds a stale-cache refresh. Zero disables the bound.
	RefreshTimeout time.Duration
	// Now is the clock used by the device cache.
	Now func() time.Time
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator resolves loosely specified device commands into backend
// intent calls. It is safe for concurrent use.
type Orchestrator struct {
	client         backend.Client
	prefix         string
	refreshTimeout time.Duration
	cache          *device.Cache
	refreshGroup   singleflight.Group
	logger         logging.Logger
}

// New creates an Orchestrator bound to client. A nil client is allowed; the
// operations then report NotConnectedMessage.
func New(client backend.Client, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		CacheTTL:       device.DefaultTTL,
		RefreshTimeout: DefaultRefreshTimeout,
		Now:            time.Now,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		client:         client,
		prefix:         opts.Prefix,
		refreshTimeout: opts.RefreshTimeout,
		cache: device.NewCache(func(o *device.Options) {
			o.TTL = opts.CacheTTL
			o.Now = opts.Now
		}),
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Cache exposes the device cache for introspection.
func (o *Orchestrator) Cache() *device.Cache { return o.cache }

// Prefix returns the tool name prefix in use.
func (o *Orchestrator) Prefix() string { return o.prefix }

func (o *Orchestrator) toolName(name string) string { return o.prefix + name }

// Refresh fetches the live context and replaces the device cache. Concurrent
// callers share a single backend call. The previous snapshot is kept when
// the fetch fails or returns no text.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if o.client == nil {
		return backend.ErrNotConnected
	}

	ch := o.refreshGroup.DoChan("live_context", func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		if o.refreshTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, o.refreshTimeout)
			defer cancel()
		}

		res, err := o.client.CallTool(rctx, o.toolName(backend.LiveContextTool), map[string]any{})
		if err != nil {
			return nil, fmt.Errorf("live context: %w", err)
		}

		if res.Failed() {
			return nil, fmt.Errorf("live context: backend error: %s", res.JoinedText())
		}

		texts := res.Texts()
		if len(texts) == 0 {
			return nil, errors.New("live context: empty response")
		}

		n := o.cache.Parse(strings.Join(texts, " "))
		o.logger.Debug("hass.cache.refreshed", "devices", n)

		return n, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

// refreshIfStale refreshes a stale cache and swallows any failure.
func (o *Orchestrator) refreshIfStale(ctx context.Context) {
	if !o.cache.IsStale() {
		return
	}

	if err := o.Refresh(ctx); err != nil {
		o.logger.Warn("hass.cache.refresh_failed", "error", err.Error())
	}
}

// Control performs action on the device named by target. value is only
// consulted by set_volume, set_brightness and set_temperature.
func (o *Orchestrator) Control(ctx context.Context, action, target string, value *int) string {
	if o.client == nil {
		return NotConnectedMessage
	}

	o.refreshIfStale(ctx)

	var domain string
	if rec, ok := o.cache.Find(target); ok {
		domain = rec.Domain
	}

	if domain != "" {
		if corrected := intent.Remap(action, domain); corrected != action {
			o.logger.Info("hass.action.remapped", "from", action, "to", corrected, "domain", domain)
			action = corrected
		}
	}

	in, err := intent.Resolve(action, domain)
	if err != nil {
		return fmt.Sprintf("Unknown action: %s. Valid actions: %s", action, strings.Join(intent.ValidActions(), ", "))
	}

	args := buildArgs(action, target, domain, in.Args, value)
	tool := o.toolName(in.Name)

	o.logger.Debug("hass.control.call", "tool", tool, "target", target, "domain", domain)

	res, err := o.client.CallTool(ctx, tool, args)
	if err != nil {
		o.logger.Error("hass.control.failed", "tool", tool, "error", err.Error())
		return fmt.Sprintf("Failed to %s %s: %v", action, target, err)
	}

	if res.Failed() {
		return "Error: " + res.JoinedText()
	}

	if texts := res.Texts(); len(texts) > 0 {
		return strings.Join(texts, " ")
	}

	return fmt.Sprintf("Done: %s %s", action, target)
}

func buildArgs(action, target, domain string, extra map[string]any, value *int) map[string]any {
	args := map[string]any{"name": target}

	if domain != "" {
		args["domain"] = []string{domain}
	}

	for k, v := range extra {
		args[k] = v
	}

	if value == nil {
		return args
	}

	switch action {
	case intent.SetVolume:
		args["volume_level"] = *value
	case intent.SetBrightness:
		args["brightness"] = *value
	case intent.SetTemperature:
		args["temperature"] = *value
	}

	return args
}

// GetState returns the live context, or only the block describing target
// when target is non-empty. The fetched text also refreshes the device
// cache.
func (o *Orchestrator) GetState(ctx context.Context, target string) string {
	if o.client == nil {
		return NotConnectedMessage
	}

	res, err := o.client.CallTool(ctx, o.toolName(backend.LiveContextTool), map[string]any{})
	if err != nil {
		o.logger.Error("hass.get_state.failed", "error", err.Error())
		return fmt.Sprintf("Failed to get state: %v", err)
	}

	if res.Failed() {
		return "Error: " + res.JoinedText()
	}

	full := "No devices found"
	if texts := res.Texts(); len(texts) > 0 {
		full = strings.Join(texts, " ")
	}

	n := o.cache.Parse(full)
	o.logger.Debug("hass.cache.refreshed", "devices", n, "source", "get_state")

	if target == "" {
		return full
	}

	if filtered, ok := filterDevice(full, target); ok {
		return filtered
	}

	return fmt.Sprintf("Device '%s' not found", target)
}

// filterDevice collects the lines from a names: line mentioning target up
// to (excluding) the next names: line that does not.
func filterDevice(full, target string) (string, bool) {
	t := strings.ToLower(target)

	var (
		captured  []string
		capturing bool
	)

	for line := range strings.SplitSeq(full, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "names:") {
			capturing = strings.Contains(lower, t)
		}

		if capturing {
			captured = append(captured, line)
		}
	}

	if len(captured) == 0 {
		return "", false
	}

	return strings.Join(captured, "\n"), true
}
