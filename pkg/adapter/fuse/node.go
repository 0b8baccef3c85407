package fuse

import (
	"context"
	"encoding/binary"
	"path"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/marmos91/lsysfs/internal/logger"
	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/marmos91/lsysfs/pkg/metrics"
	"github.com/marmos91/lsysfs/pkg/namespace"
)

// blockSize is the block size reported through stat and statfs.
const blockSize = 4096

// mount is the state shared by every node of one mount.
type mount struct {
	ns      *namespace.Namespace
	metrics metrics.FUSEMetrics
	opts    Options
}

// Node is a directory or file of the mounted namespace.
//
// Nodes carry their absolute path and hold no entry state: every request
// goes to the engine, so the kernel always sees the current catalogs.
type Node struct {
	gofuse.Inode

	mount *mount
	path  string
}

var (
	_ gofuse.InodeEmbedder = (*Node)(nil)
	_ gofuse.NodeGetattrer = (*Node)(nil)
	_ gofuse.NodeLookuper  = (*Node)(nil)
	_ gofuse.NodeReaddirer = (*Node)(nil)
	_ gofuse.NodeOpener    = (*Node)(nil)
	_ gofuse.NodeReader    = (*Node)(nil)
	_ gofuse.NodeWriter    = (*Node)(nil)
	_ gofuse.NodeCreater   = (*Node)(nil)
	_ gofuse.NodeMkdirer   = (*Node)(nil)
	_ gofuse.NodeUnlinker  = (*Node)(nil)
	_ gofuse.NodeRmdirer   = (*Node)(nil)
	_ gofuse.NodeSetattrer = (*Node)(nil)
	_ gofuse.NodeStatfser  = (*Node)(nil)
)

// NewRoot returns the root node for a mount of ns.
func NewRoot(ns *namespace.Namespace, opts Options, m metrics.FUSEMetrics) *Node {
	if m == nil {
		m = metrics.NewNoopFUSEMetrics()
	}
	opts.applyDefaults()
	return &Node{
		mount: &mount{ns: ns, metrics: m, opts: opts},
		path:  "/",
	}
}

func (n *Node) child(name string) string {
	return path.Join(n.path, name)
}

// begin records the start of a request and returns the function that
// records its end. The returned function passes the errno through.
func (n *Node) begin(op string) func(syscall.Errno) syscall.Errno {
	clk := n.mount.opts.Clock
	start := clk.Now()
	n.mount.metrics.RecordRequestStart(op)
	return func(errno syscall.Errno) syscall.Errno {
		n.mount.metrics.RecordRequestEnd(op)
		n.mount.metrics.RecordRequest(op, clk.Since(start), uintptr(errno))
		if errno != 0 {
			logger.Debug("fuse: %s %s: %v", op, n.path, errno)
		}
		return errno
	}
}

func (n *Node) Getattr(ctx context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	done := n.begin("GETATTR")

	attrs, err := n.mount.ns.GetAttributes(ctx, n.path)
	if err != nil {
		return done(ToErrno(err))
	}

	fillAttr(&out.Attr, attrs)
	out.SetTimeout(n.mount.opts.AttrTimeout)
	return done(gofuse.OK)
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	done := n.begin("LOOKUP")

	inode, errno := n.attach(ctx, n.child(name), out)
	return inode, done(errno)
}

// attach fetches the attributes of p and returns a child inode for it.
func (n *Node) attach(ctx context.Context, p string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	attrs, err := n.mount.ns.GetAttributes(ctx, p)
	if err != nil {
		return nil, ToErrno(err)
	}

	fillAttr(&out.Attr, attrs)
	out.SetEntryTimeout(n.mount.opts.EntryTimeout)
	out.SetAttrTimeout(n.mount.opts.AttrTimeout)

	node := &Node{mount: n.mount, path: p}
	stable := gofuse.StableAttr{Mode: typeBits(attrs.Kind), Ino: out.Ino}
	return n.NewInode(ctx, node, stable), gofuse.OK
}

func (n *Node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	done := n.begin("READDIR")

	children, err := n.mount.ns.ListChildren(ctx, n.path)
	if err != nil {
		return nil, done(ToErrno(err))
	}

	entries := make([]fuse.DirEntry, 0, len(children))
	for _, c := range children {
		// go-fuse answers the dot entries itself
		if c.Name == "." || c.Name == ".." {
			continue
		}
		entries = append(entries, fuse.DirEntry{Name: c.Name, Mode: typeBits(c.Kind)})
	}

	return gofuse.NewListDirStream(entries), done(gofuse.OK)
}

// Open accepts any open of an existing file. O_TRUNC empties the content.
// Content is served with direct I/O since the reported size may be nominal.
func (n *Node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	done := n.begin("OPEN")

	res, err := n.mount.ns.Resolve(ctx, n.path)
	if err != nil {
		return nil, 0, done(ToErrno(err))
	}
	switch res.Kind {
	case namespace.NotResolved:
		return nil, 0, done(syscall.ENOENT)
	case namespace.ResolvedRoot, namespace.ResolvedDirectory:
		return nil, 0, done(syscall.EISDIR)
	}

	if flags&syscall.O_TRUNC != 0 && flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		if err := n.mount.ns.Truncate(ctx, n.path, 0); err != nil {
			return nil, 0, done(ToErrno(err))
		}
	}

	return nil, fuse.FOPEN_DIRECT_IO, done(gofuse.OK)
}

func (n *Node) Read(ctx context.Context, _ gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	done := n.begin("READ")

	result, err := n.mount.ns.Read(ctx, n.path, off, int64(len(dest)))
	if err != nil {
		return nil, done(ToErrno(err))
	}
	return fuse.ReadResultData(result.Data), done(gofuse.OK)
}

func (n *Node) Write(ctx context.Context, _ gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	done := n.begin("WRITE")

	written, err := n.mount.ns.Write(ctx, n.path, data, off)
	if err != nil {
		return 0, done(ToErrno(err))
	}
	return uint32(written), done(gofuse.OK)
}

func (n *Node) Create(ctx context.Context, name string, _ uint32, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	done := n.begin("CREATE")

	p := n.child(name)
	if _, err := n.mount.ns.CreateFile(ctx, p); err != nil {
		return nil, nil, 0, done(ToErrno(err))
	}

	inode, errno := n.attach(ctx, p, out)
	if errno != 0 {
		return nil, nil, 0, done(errno)
	}
	return inode, nil, fuse.FOPEN_DIRECT_IO, done(gofuse.OK)
}

func (n *Node) Mkdir(ctx context.Context, name string, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	done := n.begin("MKDIR")

	p := n.child(name)
	if _, err := n.mount.ns.CreateDirectory(ctx, p); err != nil {
		return nil, done(ToErrno(err))
	}

	inode, errno := n.attach(ctx, p, out)
	return inode, done(errno)
}

func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	done := n.begin("UNLINK")
	return done(ToErrno(n.mount.ns.DeleteFile(ctx, n.child(name))))
}

func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	done := n.begin("RMDIR")
	return done(ToErrno(n.mount.ns.DeleteDirectory(ctx, n.child(name))))
}

// Setattr applies size and time changes. Mode and ownership are fixed by
// configuration and changes to them are ignored.
func (n *Node) Setattr(ctx context.Context, _ gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	done := n.begin("SETATTR")

	if size, ok := in.GetSize(); ok {
		if err := n.mount.ns.Truncate(ctx, n.path, int64(size)); err != nil {
			return done(ToErrno(err))
		}
	}

	var atime, mtime *time.Time
	if t, ok := in.GetATime(); ok {
		atime = &t
	}
	if t, ok := in.GetMTime(); ok {
		mtime = &t
	}
	if atime != nil || mtime != nil {
		if err := n.mount.ns.SetTimes(ctx, n.path, atime, mtime); err != nil {
			return done(ToErrno(err))
		}
	}

	attrs, err := n.mount.ns.GetAttributes(ctx, n.path)
	if err != nil {
		return done(ToErrno(err))
	}
	fillAttr(&out.Attr, attrs)
	out.SetTimeout(n.mount.opts.AttrTimeout)
	return done(gofuse.OK)
}

func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	done := n.begin("STATFS")

	stats, err := n.mount.ns.Stats(ctx)
	if err != nil {
		return done(ToErrno(err))
	}

	fillStatfs(out, stats, n.mount.ns.Config())
	return done(gofuse.OK)
}

// fillStatfs reports entry slots as inodes. Block counts derive from the
// per-file content bound when one is set.
func fillStatfs(out *fuse.StatfsOut, stats namespace.Stats, cfg namespace.Config) {
	used := uint64(stats.Directories + stats.Files)
	total := uint64(stats.Capacity)
	usedBlocks := (uint64(stats.ContentBytes) + blockSize - 1) / blockSize

	totalBlocks := usedBlocks
	if cfg.MaxContentSize > 0 {
		totalBlocks = uint64(stats.Capacity/2) * ((uint64(cfg.MaxContentSize) + blockSize - 1) / blockSize)
	}
	free := uint64(0)
	if totalBlocks > usedBlocks {
		free = totalBlocks - usedBlocks
	}

	out.Blocks = totalBlocks
	out.Bfree = free
	out.Bavail = free
	out.Files = total
	out.Ffree = total - min(used, total)
	out.Bsize = blockSize
	out.Frsize = blockSize
	out.NameLen = uint32(cfg.MaxNameLength)
}

func fillAttr(out *fuse.Attr, attrs *namespace.Attributes) {
	out.Ino = inodeNumber(attrs.ID)
	out.Mode = typeBits(attrs.Kind) | attrs.Mode
	out.Nlink = attrs.Nlink
	out.Size = uint64(attrs.Size)
	out.Blocks = (out.Size + 511) / 512
	out.Blksize = blockSize
	out.Uid = attrs.UID
	out.Gid = attrs.GID
	out.SetTimes(&attrs.Atime, &attrs.Mtime, &attrs.Ctime)
}

func typeBits(kind metadata.EntryKind) uint32 {
	if kind == metadata.KindDirectory {
		return syscall.S_IFDIR
	}
	return syscall.S_IFREG
}

// inodeNumber derives a stable inode number from an entry ID. The root
// always gets FUSE_ROOT_ID, and derived numbers never collide with it.
func inodeNumber(id metadata.EntryID) uint64 {
	if id == metadata.NilEntryID {
		return fuse.FUSE_ROOT_ID
	}
	ino := binary.BigEndian.Uint64(id[:8])
	if ino <= fuse.FUSE_ROOT_ID {
		ino += 2
	}
	return ino
}
