// Package settings normalizes the loosely-typed settings blobs from the
// key-value store into typed values, and builds the per-request whitelist of
// active record collections.
package settings

import (
	"context"
	"encoding/json"
	"errors"

	"faqbot-ai/internal/contextutil"
	"faqbot-ai/internal/storage"
)

// Settings store keys.
const (
	KeySettings    = "settings"
	KeyCollections = "collections"
)

// Settings is the typed form of the "settings" blob.
type Settings struct {
	OpenAIKey            string            `json:"openaiKey"`
	ContactLink          string            `json:"contactLink"`
	SystemInstructions   string            `json:"systemInstructions"`
	ResponseInstructions string            `json:"responseInstructions"`
	CardStyles           map[string]string `json:"cardStyles"`
}

// Field is one whitelisted field of an active collection.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Collection is the whitelist of one enabled record collection: its name and
// the ordered fields the planner and executor may reference. Immutable for
// the duration of a request.
type Collection struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// FieldNames returns the ordered names of the whitelisted fields.
func (c Collection) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the named field and whether it is whitelisted.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// fieldConfig mirrors one entry of the persisted "collections" blob, where
// every field of a collection is listed with an enabled flag.
type fieldConfig struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

type collectionConfig struct {
	Name   string        `json:"name"`
	Fields []fieldConfig `json:"fields"`
}

// Field types that may be exposed to the planner and executor. Anything else
// (components, blobs, json) is dropped from the whitelist.
var allowedFieldTypes = map[string]bool{
	"string":      true,
	"text":        true,
	"email":       true,
	"uid":         true,
	"richtext":    true,
	"enumeration": true,
	"integer":     true,
	"biginteger":  true,
	"decimal":     true,
	"float":       true,
	"date":        true,
	"datetime":    true,
	"time":        true,
	"relation":    true,
	"media":       true,
}

// Provider reads persisted settings once per request and hands typed values
// to the pipeline. It is the single configuration dependency injected into
// the pipeline rather than an implicit global store.
type Provider struct {
	store   storage.SettingsStore
	records storage.RecordStore
}

// NewProvider creates a new Provider.
func NewProvider(store storage.SettingsStore, records storage.RecordStore) *Provider {
	return &Provider{store: store, records: records}
}

// Settings returns the typed settings blob. A missing or malformed blob
// yields the zero value; reading settings never fails a request.
func (p *Provider) Settings(ctx context.Context) Settings {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := p.store.Get(ctx, KeySettings)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.WarnContext(ctx, "failed to read settings", "error", err)
		}
		return Settings{}
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		logger.WarnContext(ctx, "malformed settings blob", "error", err)
		return Settings{}
	}
	return s
}

// ActiveCollections builds the whitelist of enabled collections, keeping only
// enabled fields that exist in the live schema and carry an exposable type.
// Collections whose table is missing or with no surviving fields are skipped.
// Any error yields an empty whitelist rather than a failed request.
func (p *Provider) ActiveCollections(ctx context.Context) []Collection {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := p.store.Get(ctx, KeyCollections)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.WarnContext(ctx, "failed to read collections config", "error", err)
		}
		return nil
	}

	var configs []collectionConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		logger.WarnContext(ctx, "malformed collections blob", "error", err)
		return nil
	}

	var active []Collection
	for _, cfg := range configs {
		enabled := make(map[string]fieldConfig)
		for _, f := range cfg.Fields {
			if f.Enabled {
				enabled[f.Name] = f
			}
		}
		if len(enabled) == 0 {
			logger.DebugContext(ctx, "skipping collection with no enabled fields", "collection", cfg.Name)
			continue
		}

		columns, err := p.records.Columns(ctx, cfg.Name)
		if err != nil {
			logger.WarnContext(ctx, "collection table not found", "collection", cfg.Name, "error", err)
			continue
		}
		live := make(map[string]bool, len(columns))
		for _, col := range columns {
			live[col.Name] = true
		}

		// Preserve the configured field order
		var fields []Field
		for _, f := range cfg.Fields {
			if !f.Enabled || !live[f.Name] || !allowedFieldTypes[f.Type] {
				continue
			}
			fields = append(fields, Field{Name: f.Name, Type: f.Type})
		}
		if len(fields) == 0 {
			continue
		}

		active = append(active, Collection{Name: cfg.Name, Fields: fields})
	}

	return active
}
