package fuse

import (
	"os"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/pkg/errors"

	"github.com/marmos91/lsysfs/internal/logger"
	"github.com/marmos91/lsysfs/pkg/metrics"
	"github.com/marmos91/lsysfs/pkg/namespace"
)

// Mount serves ns at opts.Mountpoint.
//
// The caller owns the returned server: Wait blocks until the filesystem is
// unmounted, Unmount detaches it. The namespace is not closed on unmount.
//
// Parameters:
//   - ns: Engine backing every request
//   - opts: Mount options (zero timeouts use the defaults)
//   - m: Request metrics (nil disables metrics)
func Mount(ns *namespace.Namespace, opts Options, m metrics.FUSEMetrics) (*fuse.Server, error) {
	if ns == nil {
		return nil, errors.New("namespace is required")
	}
	if opts.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	opts.applyDefaults()

	if err := os.MkdirAll(opts.Mountpoint, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating mountpoint %s", opts.Mountpoint)
	}

	root := NewRoot(ns, opts, m)

	entryTimeout := opts.EntryTimeout
	attrTimeout := opts.AttrTimeout

	server, err := gofuse.Mount(opts.Mountpoint, root, &gofuse.Options{
		EntryTimeout: &entryTimeout,
		AttrTimeout:  &attrTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     opts.FSName,
			Name:       "lsysfs",
			AllowOther: opts.AllowOther,
			Debug:      opts.Debug,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "mounting FUSE filesystem at %s", opts.Mountpoint)
	}

	logger.Info("lsysfs mounted at %s", opts.Mountpoint)
	return server, nil
}
