package fuse

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Default kernel cache timeouts applied when Options leaves them zero.
const (
	DefaultEntryTimeout = time.Second
	DefaultAttrTimeout  = time.Second
)

// Options configures a FUSE mount.
type Options struct {
	// Mountpoint is the directory the filesystem is mounted on.
	// It is created if missing.
	Mountpoint string

	// FSName is the source name shown in the mount table
	FSName string

	// AllowOther lets users other than the mounting user access the mount.
	// Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// EntryTimeout is how long the kernel caches name lookups
	EntryTimeout time.Duration

	// AttrTimeout is how long the kernel caches attributes
	AttrTimeout time.Duration

	// Debug logs every FUSE request and reply
	Debug bool

	// Clock times requests for metrics. Nil uses the wall clock.
	Clock clock.Clock
}

func (o *Options) applyDefaults() {
	if o.FSName == "" {
		o.FSName = "lsysfs"
	}
	if o.EntryTimeout <= 0 {
		o.EntryTimeout = DefaultEntryTimeout
	}
	if o.AttrTimeout <= 0 {
		o.AttrTimeout = DefaultAttrTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}
