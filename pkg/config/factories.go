package config

import (
	"context"
	"fmt"

	"github.com/marmos91/lsysfs/pkg/adapter/fuse"
	"github.com/marmos91/lsysfs/pkg/metadata"
	badgercatalog "github.com/marmos91/lsysfs/pkg/metadata/badger"
	"github.com/marmos91/lsysfs/pkg/metadata/memory"
	"github.com/marmos91/lsysfs/pkg/metrics"
	"github.com/marmos91/lsysfs/pkg/namespace"
	"github.com/mitchellh/mapstructure"
)

// CreateNamespace builds both catalogs and the namespace engine.
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Complete configuration (defaults applied)
//   - m: Metrics sink (nil disables metrics)
//
// Returns:
//   - *namespace.Namespace: Engine owning both catalogs
//   - error: Configuration or initialization error
func CreateNamespace(ctx context.Context, cfg *Config, m metrics.NamespaceMetrics) (*namespace.Namespace, error) {
	dirs, err := CreateCatalog(ctx, &cfg.Catalog, metadata.KindDirectory, cfg.Namespace.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory catalog: %w", err)
	}

	files, err := CreateCatalog(ctx, &cfg.Catalog, metadata.KindFile, cfg.Namespace.Capacity)
	if err != nil {
		_ = dirs.Close()
		return nil, fmt.Errorf("failed to create file catalog: %w", err)
	}

	ns, err := namespace.New(dirs, files, NamespaceOptions(&cfg.Namespace), namespace.WithMetrics(m))
	if err != nil {
		_ = dirs.Close()
		_ = files.Close()
		return nil, err
	}
	return ns, nil
}

// NamespaceOptions converts the namespace section into engine configuration.
func NamespaceOptions(cfg *NamespaceConfig) namespace.Config {
	out := namespace.Config{
		WriteMode:       namespace.WriteMode(cfg.WriteMode),
		NamePolicy:      namespace.NamePolicy(cfg.NamePolicy),
		SizeReporting:   namespace.SizeReporting(cfg.SizeReporting),
		NominalFileSize: cfg.NominalFileSize,
		MaxContentSize:  cfg.MaxContentSize,
		MaxNameLength:   cfg.MaxNameLength,
		RequireParent:   cfg.RequireParent,
		DirMode:         cfg.DirMode,
		FileMode:        cfg.FileMode,
	}
	if cfg.UID != nil {
		out.UID = *cfg.UID
	}
	if cfg.GID != nil {
		out.GID = *cfg.GID
	}
	return out
}

// MountOptions converts the mount section into FUSE adapter options.
func MountOptions(cfg *MountConfig) fuse.Options {
	return fuse.Options{
		Mountpoint:   cfg.Mountpoint,
		FSName:       cfg.FSName,
		AllowOther:   cfg.AllowOther,
		EntryTimeout: cfg.EntryTimeout,
		AttrTimeout:  cfg.AttrTimeout,
		Debug:        cfg.Debug,
	}
}

// CreateCatalog creates a catalog of the given kind based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/metadata/memory
//   - "badger": Uses pkg/metadata/badger (in-memory BadgerDB)
func CreateCatalog(ctx context.Context, cfg *CatalogConfig, kind metadata.EntryKind, capacity int) (metadata.Catalog, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryCatalog(ctx, cfg.Memory, kind, capacity)
	case "badger":
		return createBadgerCatalog(ctx, cfg.Badger, kind, capacity)
	default:
		return nil, fmt.Errorf("unknown catalog type: %q (supported: memory, badger)", cfg.Type)
	}
}

func createMemoryCatalog(ctx context.Context, options map[string]any, kind metadata.EntryKind, capacity int) (metadata.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The memory backend has no options; decoding rejects stray keys.
	var opts struct{}
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode memory catalog options: %w", err)
	}

	return memory.NewMemoryCatalog(kind, capacity), nil
}

func createBadgerCatalog(ctx context.Context, options map[string]any, kind metadata.EntryKind, capacity int) (metadata.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalogCfg := badgercatalog.BadgerCatalogConfig{
		Kind:     kind,
		Capacity: capacity,
	}
	if err := decodeOptions(options, &catalogCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger catalog options: %w", err)
	}
	if catalogCfg.IndexCacheSizeMB < 0 || catalogCfg.BlockCacheSizeMB < 0 {
		return nil, fmt.Errorf("badger catalog: cache sizes must not be negative")
	}

	catalog, err := badgercatalog.NewBadgerCatalog(ctx, catalogCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger catalog: %w", err)
	}
	return catalog, nil
}

// decodeOptions decodes a backend options map into result, rejecting keys
// the backend does not know.
func decodeOptions(options map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           result,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}
