package namespace

import (
	"context"
	"math"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// ReadResult is the outcome of a Read.
type ReadResult struct {
	// Data holds the bytes read, at most the requested length
	Data []byte

	// Remaining is the number of content bytes from the read offset to the
	// end of the content. Zero when the offset is at or past the end.
	Remaining int64
}

// Write stores data into the file at path and returns the number of bytes
// accepted.
//
// Under WriteModeOverwrite the data lands at offset: content is extended as
// needed and any gap between the old end and offset is zero-filled. Under
// WriteModeAppend the offset is ignored and data is concatenated onto the
// existing content (empty content simply becomes data).
//
// Write does not change the file's timestamps.
//
// Returns:
//   - error: ErrInvalidArgument for a negative offset, ErrNotFound if path
//     does not name a file, ErrTooLarge if the result would exceed
//     Config.MaxContentSize (content is left unchanged)
func (ns *Namespace) Write(ctx context.Context, path string, data []byte, offset int64) (n int, err error) {
	defer ns.observe("Write", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, metadata.NewError(metadata.ErrInvalidArgument, "negative offset", path)
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	entry, err := ns.fileLocked(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}

	content := entry.Content
	var updated []byte

	switch ns.config.WriteMode {
	case WriteModeAppend:
		if err := ns.checkSize(path, int64(len(content))+int64(len(data))); err != nil {
			return 0, err
		}
		if len(content) == 0 {
			updated = data
		} else {
			updated = append(content, data...)
		}

	default:
		if offset > math.MaxInt64-int64(len(data)) {
			return 0, metadata.NewError(metadata.ErrTooLarge, "write past the maximum file size", path)
		}
		end := offset + int64(len(data))
		if err := ns.checkSize(path, end); err != nil {
			return 0, err
		}
		if end > int64(len(content)) {
			updated = make([]byte, end)
			copy(updated, content)
		} else {
			updated = content
		}
		copy(updated[offset:], data)
	}

	if err := ns.files.SetContent(ctx, entry.ID, updated); err != nil {
		return 0, err
	}

	ns.metrics.RecordBytes("write", int64(len(data)))
	return len(data), nil
}

// Read returns up to length bytes of the file at path starting at offset.
//
// Reads are clamped to the content: an offset at or past the end yields no
// data and Remaining 0.
//
// Returns:
//   - error: ErrInvalidArgument for a negative offset or length,
//     ErrNotFound if path does not name a file
func (ns *Namespace) Read(ctx context.Context, path string, offset, length int64) (result ReadResult, err error) {
	defer ns.observe("Read", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return ReadResult{}, err
	}
	if offset < 0 || length < 0 {
		return ReadResult{}, metadata.NewError(metadata.ErrInvalidArgument, "negative offset or length", path)
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	entry, err := ns.fileLocked(ctx, path)
	if err != nil {
		return ReadResult{}, err
	}

	size := int64(len(entry.Content))
	if offset >= size {
		return ReadResult{Data: []byte{}}, nil
	}

	end := offset + min(length, size-offset)
	result = ReadResult{
		Data:      entry.Content[offset:end],
		Remaining: size - offset,
	}

	ns.metrics.RecordBytes("read", int64(len(result.Data)))
	return result, nil
}

// Truncate sets the content length of the file at path to size, dropping
// bytes past size or zero-filling up to it.
//
// Returns ErrInvalidArgument for a negative size, ErrNotFound if path does
// not name a file, and ErrTooLarge past Config.MaxContentSize.
func (ns *Namespace) Truncate(ctx context.Context, path string, size int64) (err error) {
	defer ns.observe("Truncate", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return err
	}
	if size < 0 {
		return metadata.NewError(metadata.ErrInvalidArgument, "negative size", path)
	}
	if err := ns.checkSize(path, size); err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	entry, err := ns.fileLocked(ctx, path)
	if err != nil {
		return err
	}

	content := entry.Content
	if int64(len(content)) == size {
		return nil
	}

	updated := make([]byte, size)
	copy(updated, content)
	return ns.files.SetContent(ctx, entry.ID, updated)
}

// fileLocked resolves path and requires it to name a file. Caller holds mu.
func (ns *Namespace) fileLocked(ctx context.Context, path string) (*metadata.Entry, error) {
	res, err := ns.resolveLocked(ctx, path)
	if err != nil {
		return nil, err
	}
	if res.Kind != ResolvedFile {
		return nil, metadata.NewNotFoundError(path)
	}
	return res.Entry, nil
}

func (ns *Namespace) checkSize(path string, size int64) error {
	if size > ns.config.MaxContentSize {
		return metadata.NewError(metadata.ErrTooLarge, "file too large", path)
	}
	return nil
}
