package fuse

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/marmos91/lsysfs/pkg/metadata/memory"
	"github.com/marmos91/lsysfs/pkg/namespace"
)

var epoch = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type recordingMetrics struct {
	mu       sync.Mutex
	requests  map[string][]uintptr
	durations map[string][]time.Duration
	inFlight  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		requests:  map[string][]uintptr{},
		durations: map[string][]time.Duration{},
		inFlight:  map[string]int{},
	}
}

func (m *recordingMetrics) RecordRequest(op string, d time.Duration, errno uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[op] = append(m.requests[op], errno)
	m.durations[op] = append(m.durations[op], d)
}

func (m *recordingMetrics) RecordRequestStart(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight[op]++
}

func (m *recordingMetrics) RecordRequestEnd(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight[op]--
}

type fixture struct {
	ns      *namespace.Namespace
	clock   *clock.Mock
	root    *Node
	metrics *recordingMetrics
	ctx     context.Context
}

func newFixture(t *testing.T, cfg namespace.Config) *fixture {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(epoch)

	ns, err := namespace.New(
		memory.NewMemoryCatalog(metadata.KindDirectory, 8),
		memory.NewMemoryCatalog(metadata.KindFile, 8),
		cfg,
		namespace.WithClock(mock),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })

	m := newRecordingMetrics()
	return &fixture{
		ns:      ns,
		root:    NewRoot(ns, Options{Clock: mock}, m),
		clock:   mock,
		metrics: m,
		ctx:     context.Background(),
	}
}

// node returns a detached node for p, enough for requests that never
// create inodes.
func (f *fixture) node(p string) *Node {
	return &Node{mount: f.root.mount, path: p}
}

func TestNewRootDefaults(t *testing.T) {
	f := newFixture(t, namespace.Config{})

	assert.Equal(t, "/", f.root.path)
	assert.Equal(t, "lsysfs", f.root.mount.opts.FSName)
	assert.Equal(t, DefaultEntryTimeout, f.root.mount.opts.EntryTimeout)
	assert.Equal(t, DefaultAttrTimeout, f.root.mount.opts.AttrTimeout)
	assert.NotNil(t, NewRoot(f.ns, Options{}, nil).mount.opts.Clock)
	assert.Equal(t, "/a", f.root.child("a"))
	assert.Equal(t, "/a/b", f.node("/a").child("b"))
}

func TestGetattrRoot(t *testing.T) {
	f := newFixture(t, namespace.Config{})

	var out fuse.AttrOut
	errno := f.root.Getattr(f.ctx, nil, &out)

	require.Equal(t, gofuse.OK, errno)
	assert.Equal(t, uint64(fuse.FUSE_ROOT_ID), out.Ino)
	assert.Equal(t, uint32(syscall.S_IFDIR|0o755), out.Mode)
	assert.Equal(t, uint32(2), out.Nlink)
	assert.Equal(t, []uintptr{0}, f.metrics.requests["GETATTR"])
	assert.Equal(t, []time.Duration{0}, f.metrics.durations["GETATTR"], "frozen clock gives zero duration")
	assert.Zero(t, f.metrics.inFlight["GETATTR"])
}

func TestRequestDurationUsesMountClock(t *testing.T) {
	f := newFixture(t, namespace.Config{})

	done := f.root.begin("STATFS")
	f.clock.Add(250 * time.Millisecond)
	assert.Equal(t, syscall.ENOSPC, done(syscall.ENOSPC))

	assert.Equal(t, []time.Duration{250 * time.Millisecond}, f.metrics.durations["STATFS"])
	assert.Equal(t, []uintptr{uintptr(syscall.ENOSPC)}, f.metrics.requests["STATFS"])
	assert.Zero(t, f.metrics.inFlight["STATFS"])
}

func TestGetattrFile(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	entry, err := f.ns.CreateFile(f.ctx, "/notes")
	require.NoError(t, err)
	_, err = f.ns.Write(f.ctx, "/notes", []byte("hello"), 0)
	require.NoError(t, err)

	var out fuse.AttrOut
	require.Equal(t, gofuse.OK, f.node("/notes").Getattr(f.ctx, nil, &out))

	assert.Equal(t, inodeNumber(entry.ID), out.Ino)
	assert.Equal(t, uint32(syscall.S_IFREG|0o644), out.Mode)
	assert.Equal(t, uint64(5), out.Size)
	assert.Equal(t, uint64(epoch.Unix()), out.Mtime)
}

func TestGetattrMissing(t *testing.T) {
	f := newFixture(t, namespace.Config{})

	var out fuse.AttrOut
	errno := f.node("/missing").Getattr(f.ctx, nil, &out)

	assert.Equal(t, syscall.ENOENT, errno)
	assert.Equal(t, []uintptr{uintptr(syscall.ENOENT)}, f.metrics.requests["GETATTR"])
}

func TestReaddirSkipsDotEntries(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	_, err := f.ns.CreateDirectory(f.ctx, "/docs")
	require.NoError(t, err)
	_, err = f.ns.CreateFile(f.ctx, "/readme")
	require.NoError(t, err)
	_, err = f.ns.CreateFile(f.ctx, "/docs/inner")
	require.NoError(t, err)

	stream, errno := f.root.Readdir(f.ctx)
	require.Equal(t, gofuse.OK, errno)
	defer stream.Close()

	var got []fuse.DirEntry
	for stream.HasNext() {
		entry, errno := stream.Next()
		require.Equal(t, gofuse.OK, errno)
		got = append(got, entry)
	}

	assert.Equal(t, []fuse.DirEntry{
		{Name: "docs", Mode: syscall.S_IFDIR},
		{Name: "readme", Mode: syscall.S_IFREG},
	}, got)
}

func TestOpenTruncates(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	_, err := f.ns.CreateFile(f.ctx, "/a")
	require.NoError(t, err)
	_, err = f.ns.Write(f.ctx, "/a", []byte("data"), 0)
	require.NoError(t, err)

	_, flags, errno := f.node("/a").Open(f.ctx, syscall.O_RDONLY|syscall.O_TRUNC)
	require.Equal(t, gofuse.OK, errno)
	assert.Equal(t, uint32(fuse.FOPEN_DIRECT_IO), flags)
	assertContent(t, f, "/a", "data")

	_, _, errno = f.node("/a").Open(f.ctx, syscall.O_WRONLY|syscall.O_TRUNC)
	require.Equal(t, gofuse.OK, errno)
	assertContent(t, f, "/a", "")
}

func TestOpenRejects(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	_, err := f.ns.CreateDirectory(f.ctx, "/d")
	require.NoError(t, err)

	_, _, errno := f.node("/d").Open(f.ctx, syscall.O_RDONLY)
	assert.Equal(t, syscall.EISDIR, errno)

	_, _, errno = f.node("/nope").Open(f.ctx, syscall.O_RDONLY)
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestWriteThenRead(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	_, err := f.ns.CreateFile(f.ctx, "/a")
	require.NoError(t, err)
	n := f.node("/a")

	written, errno := n.Write(f.ctx, nil, []byte("hello world"), 0)
	require.Equal(t, gofuse.OK, errno)
	assert.Equal(t, uint32(11), written)

	assertContent(t, f, "/a", "hello world")

	dest := make([]byte, 5)
	res, errno := n.Read(f.ctx, nil, dest, 6)
	require.Equal(t, gofuse.OK, errno)
	data, status := res.Bytes(dest)
	require.True(t, status.Ok())
	assert.Equal(t, "world", string(data))
}

func TestWriteTooLarge(t *testing.T) {
	f := newFixture(t, namespace.Config{MaxContentSize: 4})
	_, err := f.ns.CreateFile(f.ctx, "/a")
	require.NoError(t, err)

	_, errno := f.node("/a").Write(f.ctx, nil, []byte("hello"), 0)
	assert.Equal(t, syscall.EFBIG, errno)
}

func TestUnlinkAndRmdir(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	_, err := f.ns.CreateDirectory(f.ctx, "/d")
	require.NoError(t, err)
	_, err = f.ns.CreateFile(f.ctx, "/d/f")
	require.NoError(t, err)

	assert.Equal(t, syscall.ENOTEMPTY, f.root.Rmdir(f.ctx, "d"))
	assert.Equal(t, gofuse.OK, f.node("/d").Unlink(f.ctx, "f"))
	assert.Equal(t, syscall.ENOENT, f.node("/d").Unlink(f.ctx, "f"))
	assert.Equal(t, gofuse.OK, f.root.Rmdir(f.ctx, "d"))

	res, err := f.ns.Resolve(f.ctx, "/d")
	require.NoError(t, err)
	assert.Equal(t, namespace.NotResolved, res.Kind)
}

func TestSetattrSizeAndTimes(t *testing.T) {
	f := newFixture(t, namespace.Config{})
	_, err := f.ns.CreateFile(f.ctx, "/a")
	require.NoError(t, err)
	_, err = f.ns.Write(f.ctx, "/a", []byte("abcdef"), 0)
	require.NoError(t, err)

	mtime := epoch.Add(-time.Hour)
	in := &fuse.SetAttrIn{SetAttrInCommon: fuse.SetAttrInCommon{
		Valid: fuse.FATTR_SIZE | fuse.FATTR_MTIME,
		Size:  3,
		Mtime: uint64(mtime.Unix()),
	}}

	var out fuse.AttrOut
	require.Equal(t, gofuse.OK, f.node("/a").Setattr(f.ctx, nil, in, &out))

	assertContent(t, f, "/a", "abc")
	assert.Equal(t, uint64(3), out.Size)
	assert.Equal(t, uint64(mtime.Unix()), out.Mtime)
	assert.Equal(t, uint64(epoch.Unix()), out.Atime)
}

func TestStatfs(t *testing.T) {
	f := newFixture(t, namespace.Config{MaxContentSize: 8192})
	_, err := f.ns.CreateDirectory(f.ctx, "/d")
	require.NoError(t, err)
	_, err = f.ns.CreateFile(f.ctx, "/f")
	require.NoError(t, err)
	_, err = f.ns.Write(f.ctx, "/f", []byte("x"), 0)
	require.NoError(t, err)

	var out fuse.StatfsOut
	require.Equal(t, gofuse.OK, f.root.Statfs(f.ctx, &out))

	assert.Equal(t, uint64(16), out.Files)
	assert.Equal(t, uint64(14), out.Ffree)
	assert.Equal(t, uint64(8*2), out.Blocks)
	assert.Equal(t, uint64(15), out.Bfree)
	assert.Equal(t, uint32(blockSize), out.Bsize)
	assert.Equal(t, uint32(255), out.NameLen)
}

func TestInodeNumber(t *testing.T) {
	assert.Equal(t, uint64(fuse.FUSE_ROOT_ID), inodeNumber(metadata.NilEntryID))

	id := metadata.NewEntryID()
	assert.Equal(t, inodeNumber(id), inodeNumber(id))
	assert.Greater(t, inodeNumber(id), uint64(fuse.FUSE_ROOT_ID))

	var low metadata.EntryID
	low[7] = 1
	assert.Equal(t, uint64(3), inodeNumber(low))
}

func TestFillAttrNominalSize(t *testing.T) {
	attrs := &namespace.Attributes{
		ID:    metadata.NewEntryID(),
		Kind:  metadata.KindFile,
		Mode:  0o600,
		Nlink: 1,
		Size:  1024,
		UID:   1000,
		GID:   100,
		Atime: epoch,
		Mtime: epoch,
		Ctime: epoch,
	}

	var out fuse.Attr
	fillAttr(&out, attrs)

	assert.Equal(t, uint32(syscall.S_IFREG|0o600), out.Mode)
	assert.Equal(t, uint64(1024), out.Size)
	assert.Equal(t, uint64(2), out.Blocks)
	assert.Equal(t, uint32(1000), out.Uid)
	assert.Equal(t, uint32(100), out.Gid)
	assert.Equal(t, uint64(epoch.Unix()), out.Ctime)
}

func TestMountValidation(t *testing.T) {
	f := newFixture(t, namespace.Config{})

	_, err := Mount(nil, Options{Mountpoint: t.TempDir()}, nil)
	assert.Error(t, err)

	_, err = Mount(f.ns, Options{}, nil)
	assert.Error(t, err)
}

func assertContent(t *testing.T, f *fixture, p, want string) {
	t.Helper()
	res, err := f.ns.Read(f.ctx, p, 0, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, want, string(res.Data))
}
