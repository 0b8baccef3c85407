package fuse

import (
	"context"
	"errors"
	"syscall"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// ToErrno translates an engine error into the errno returned to the kernel.
//
// StoreError codes map one to one. Context cancellation becomes EINTR since
// the kernel interrupted the request. Anything else is an I/O failure.
func ToErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return syscall.EINTR
	}

	code, ok := metadata.CodeOf(err)
	if !ok {
		return syscall.EIO
	}

	switch code {
	case metadata.ErrNotFound:
		return syscall.ENOENT
	case metadata.ErrCapacityExceeded:
		return syscall.ENOSPC
	case metadata.ErrNotEmpty:
		return syscall.ENOTEMPTY
	case metadata.ErrAlreadyExists:
		return syscall.EEXIST
	case metadata.ErrInvalidArgument:
		return syscall.EINVAL
	case metadata.ErrNameTooLong:
		return syscall.ENAMETOOLONG
	case metadata.ErrTooLarge:
		return syscall.EFBIG
	default:
		return syscall.EIO
	}
}
