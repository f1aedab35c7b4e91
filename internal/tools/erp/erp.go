// Package erp implements the five ERP tools exposed to the reasoning
// model: one master-data listing tool and four entity searches. Search
// handlers return only insights; full records go to the result cache for
// the chat endpoint to render.
package erp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/store"
	"github.com/vyaapari360/munim/internal/tally"
	"github.com/vyaapari360/munim/internal/tools"
)

const defaultQueryTimeout = 15 * time.Second

// Config wires the shared dependencies into the tool set.
type Config struct {
	Tenant       tally.Tenant
	Store        store.Store
	Cache        *cache.Results
	QueryTimeout time.Duration // Default: 15s
	Logger       *slog.Logger
}

func (c Config) queryTimeout() time.Duration {
	if c.QueryTimeout > 0 {
		return c.QueryTimeout
	}
	return defaultQueryTimeout
}

// RegisterAll registers the full ERP tool set on the registry.
// Fails when the tenant context is missing: serving unscoped queries is
// never acceptable, so this is checked before any tool exists.
func RegisterAll(reg *tools.Registry, cfg Config) error {
	if !cfg.Tenant.Valid() {
		return tally.ErrMissingTenant
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	reg.Register(&ListMasterTool{cfg: cfg})
	reg.Register(&SearchVouchersTool{cfg: cfg})
	reg.Register(&SearchLedgersTool{cfg: cfg})
	reg.Register(&SearchStockItemsTool{cfg: cfg})
	reg.Register(&SearchGodownsTool{cfg: cfg})
	return nil
}

// insightResult packages a successful search for the reasoning model.
// Only the insight goes into Output; record count, cache key and the first
// record land in Metadata as the caller's debug summary.
func insightResult(ins map[string]any, env *cache.Envelope) (*tools.Result, error) {
	payload, err := json.Marshal(map[string]any{"insights": ins})
	if err != nil {
		return nil, fmt.Errorf("marshaling insights: %w", err)
	}
	meta := map[string]any{
		"records_count": len(env.Records),
		"cache_key":     env.Key,
		"entity":        string(env.Entity),
	}
	if len(env.Records) > 0 {
		meta["first_record"] = env.Records[0].Fields
	}
	return &tools.Result{
		Output:   tools.TruncateOutput(string(payload), tools.MaxOutputBytes),
		Metadata: meta,
		Success:  true,
	}, nil
}

// errorResult serializes a failure as a structured tool result so the
// reasoning model can explain it instead of the chat turn aborting.
// The Go error return is nil on purpose: the error lives in the payload.
func errorResult(what string, err error) (*tools.Result, error) {
	payload := map[string]any{
		"error":   what,
		"message": err.Error(),
	}
	var unsupported *tally.UnsupportedCollectionError
	if errors.As(err, &unsupported) {
		payload["supported_collections"] = tally.SupportedCollections
	}
	var dataErr *tally.DataAccessError
	if errors.As(err, &dataErr) && dataErr.Timeout {
		payload["error"] = "Connection timeout"
	}
	out, _ := json.Marshal(payload)
	return &tools.Result{Output: string(out), Success: false}, nil
}

// requireString extracts a required string parameter.
func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %s must be a non-empty string", key)
	}
	return s, nil
}

func optionalString(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func optionalNumber(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}
