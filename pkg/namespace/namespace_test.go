package namespace

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/marmos91/lsysfs/pkg/metadata"
	badgercatalog "github.com/marmos91/lsysfs/pkg/metadata/badger"
	"github.com/marmos91/lsysfs/pkg/metadata/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// backend builds a pair of catalogs with the given capacity.
type backend struct {
	name  string
	build func(t *testing.T, capacity int) (dirs, files metadata.Catalog)
}

var backends = []backend{
	{
		name: "memory",
		build: func(_ *testing.T, capacity int) (metadata.Catalog, metadata.Catalog) {
			return memory.NewMemoryCatalog(metadata.KindDirectory, capacity),
				memory.NewMemoryCatalog(metadata.KindFile, capacity)
		},
	},
	{
		name: "badger",
		build: func(t *testing.T, capacity int) (metadata.Catalog, metadata.Catalog) {
			ctx := context.Background()
			dirs, err := badgercatalog.NewBadgerCatalog(ctx, badgercatalog.BadgerCatalogConfig{
				Kind:     metadata.KindDirectory,
				Capacity: capacity,
			})
			require.NoError(t, err)
			files, err := badgercatalog.NewBadgerCatalog(ctx, badgercatalog.BadgerCatalogConfig{
				Kind:     metadata.KindFile,
				Capacity: capacity,
			})
			require.NoError(t, err)
			return dirs, files
		},
	},
}

// fixture is a namespace under test with its mock clock.
type fixture struct {
	ns    *Namespace
	clock *clock.Mock
	ctx   context.Context
}

type fixtureOptions struct {
	capacity int
	config   Config
}

// forEachBackend runs fn once per catalog backend.
func forEachBackend(t *testing.T, opts fixtureOptions, fn func(t *testing.T, f *fixture)) {
	t.Helper()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			dirs, files := b.build(t, opts.capacity)

			mock := clock.NewMock()
			mock.Set(epoch)

			ns, err := New(dirs, files, opts.config, WithClock(mock))
			require.NoError(t, err)
			t.Cleanup(func() { _ = ns.Close() })

			fn(t, &fixture{ns: ns, clock: mock, ctx: context.Background()})
		})
	}
}

func requireCode(t *testing.T, err error, code metadata.ErrorCode) {
	t.Helper()

	require.Error(t, err)
	got, ok := metadata.CodeOf(err)
	require.True(t, ok, "expected *metadata.StoreError, got %T: %v", err, err)
	require.Equal(t, code, got, "unexpected error: %v", err)
}

func (f *fixture) mkdir(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := f.ns.CreateDirectory(f.ctx, p)
		require.NoError(t, err, "mkdir %s", p)
	}
}

func (f *fixture) create(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := f.ns.CreateFile(f.ctx, p)
		require.NoError(t, err, "create %s", p)
	}
}

func (f *fixture) names(t *testing.T, dir string) []string {
	t.Helper()

	children, err := f.ns.ListChildren(f.ctx, dir)
	require.NoError(t, err)

	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	return names
}

func (f *fixture) content(t *testing.T, path string) string {
	t.Helper()

	res, err := f.ns.Read(f.ctx, path, 0, 1<<20)
	require.NoError(t, err)
	return string(res.Data)
}

func TestNew_RejectsMismatchedCatalogs(t *testing.T) {
	dirs := memory.NewMemoryCatalog(metadata.KindDirectory, 0)
	files := memory.NewMemoryCatalog(metadata.KindFile, 0)

	_, err := New(files, dirs, Config{})
	assert.Error(t, err)

	_, err = New(dirs, nil, Config{})
	assert.Error(t, err)
}

func TestNew_RejectsUnknownModes(t *testing.T) {
	for _, cfg := range []Config{
		{WriteMode: "prepend"},
		{NamePolicy: "loose"},
		{SizeReporting: "blocks"},
	} {
		dirs := memory.NewMemoryCatalog(metadata.KindDirectory, 0)
		files := memory.NewMemoryCatalog(metadata.KindFile, 0)

		_, err := New(dirs, files, cfg)
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	ns, err := New(
		memory.NewMemoryCatalog(metadata.KindDirectory, 0),
		memory.NewMemoryCatalog(metadata.KindFile, 0),
		Config{UID: 1000, GID: 1000},
	)
	require.NoError(t, err)
	defer ns.Close()

	cfg := ns.Config()
	assert.Equal(t, WriteModeOverwrite, cfg.WriteMode)
	assert.Equal(t, NamePolicyExclusive, cfg.NamePolicy)
	assert.Equal(t, SizeReportingContent, cfg.SizeReporting)
	assert.Equal(t, int64(DefaultNominalFileSize), cfg.NominalFileSize)
	assert.Equal(t, DefaultMaxNameLength, cfg.MaxNameLength)
	assert.Equal(t, int64(DefaultMaxContentSize), cfg.MaxContentSize)
	assert.Equal(t, uint32(0o755), cfg.DirMode)
	assert.Equal(t, uint32(0o644), cfg.FileMode)
	assert.Equal(t, uint32(1000), cfg.UID)
}

func TestCanceledContext(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		ctx, cancel := context.WithCancel(f.ctx)
		cancel()

		_, err := f.ns.CreateFile(ctx, "/a")
		require.ErrorIs(t, err, context.Canceled)

		_, err = f.ns.GetAttributes(ctx, "/")
		require.ErrorIs(t, err, context.Canceled)

		_, err = f.ns.ListChildren(ctx, "/")
		require.ErrorIs(t, err, context.Canceled)
	})
}
