package fuse

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

func TestToErrno(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syscall.Errno
	}{
		{"nil", nil, 0},
		{"not found", metadata.NewNotFoundError("/a"), syscall.ENOENT},
		{"capacity", metadata.NewError(metadata.ErrCapacityExceeded, "full", ""), syscall.ENOSPC},
		{"not empty", metadata.NewError(metadata.ErrNotEmpty, "busy", "/a"), syscall.ENOTEMPTY},
		{"exists", metadata.NewError(metadata.ErrAlreadyExists, "taken", "/a"), syscall.EEXIST},
		{"invalid", metadata.NewError(metadata.ErrInvalidArgument, "bad", "/"), syscall.EINVAL},
		{"name too long", metadata.NewError(metadata.ErrNameTooLong, "long", "/a"), syscall.ENAMETOOLONG},
		{"too large", metadata.NewError(metadata.ErrTooLarge, "big", "/a"), syscall.EFBIG},
		{"io", metadata.NewError(metadata.ErrIOError, "disk", ""), syscall.EIO},
		{"wrapped", fmt.Errorf("op: %w", metadata.NewNotFoundError("/a")), syscall.ENOENT},
		{"canceled", context.Canceled, syscall.EINTR},
		{"unknown", errors.New("boom"), syscall.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToErrno(tt.err))
		})
	}
}
