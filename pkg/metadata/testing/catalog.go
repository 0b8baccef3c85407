package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *CatalogTestSuite) RunAppendTests(test *testing.T) {
	test.Run("CreatesEntryWithID", suite.TestAppend_CreatesEntryWithID)
	test.Run("DuplicateName", suite.TestAppend_DuplicateName)
	test.Run("CapacityExceeded", suite.TestAppend_CapacityExceeded)
	test.Run("DefaultCapacity", suite.TestAppend_DefaultCapacity)
	test.Run("CanceledContext", suite.TestAppend_CanceledContext)
}

func (suite *CatalogTestSuite) RunLookupTests(test *testing.T) {
	test.Run("ExactNameOnly", suite.TestLookup_ExactNameOnly)
	test.Run("GetByID", suite.TestLookup_GetByID)
	test.Run("ReturnsCopy", suite.TestLookup_ReturnsCopy)
}

func (suite *CatalogTestSuite) RunContentTests(test *testing.T) {
	test.Run("FileStartsEmpty", suite.TestContent_FileStartsEmpty)
	test.Run("SetAndGet", suite.TestContent_SetAndGet)
	test.Run("DirectoryRejected", suite.TestContent_DirectoryRejected)
	test.Run("UnknownID", suite.TestContent_UnknownID)
}

func (suite *CatalogTestSuite) RunTimestampTests(test *testing.T) {
	test.Run("StartUninitialized", suite.TestTimestamps_StartUninitialized)
	test.Run("SetAndGet", suite.TestTimestamps_SetAndGet)
	test.Run("FarPastAndFuture", suite.TestTimestamps_FarPastAndFuture)
}

func (suite *CatalogTestSuite) RunRemoveTests(test *testing.T) {
	test.Run("CompactsPreservingOrder", suite.TestRemove_CompactsPreservingOrder)
	test.Run("FreesNameAndSlot", suite.TestRemove_FreesNameAndSlot)
	test.Run("UnknownID", suite.TestRemove_UnknownID)
}

func (suite *CatalogTestSuite) RunScanTests(test *testing.T) {
	test.Run("InsertionOrder", suite.TestScan_InsertionOrder)
	test.Run("StopsOnError", suite.TestScan_StopsOnError)
}

// TestAppend_CreatesEntryWithID verifies that Append assigns a fresh identity.
func (suite *CatalogTestSuite) TestAppend_CreatesEntryWithID(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 0)
	ctx := context.Background()

	first, err := catalog.Append(ctx, "a")
	require.NoError(test, err)
	second, err := catalog.Append(ctx, "a/b")
	require.NoError(test, err)

	assert.Equal(test, metadata.KindDirectory, first.Kind)
	assert.Equal(test, "a", first.Name)
	assert.NotEqual(test, metadata.NilEntryID, first.ID)
	assert.NotEqual(test, first.ID, second.ID, "IDs must be unique")
	assert.Equal(test, metadata.KindDirectory, catalog.Kind())

	count, err := catalog.Count(ctx)
	require.NoError(test, err)
	assert.Equal(test, 2, count)
}

// TestAppend_DuplicateName verifies name uniqueness within a catalog.
func (suite *CatalogTestSuite) TestAppend_DuplicateName(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	appendAll(test, catalog, "notes")

	_, err := catalog.Append(ctx, "notes")
	requireCode(test, err, metadata.ErrAlreadyExists)

	count, err := catalog.Count(ctx)
	require.NoError(test, err)
	assert.Equal(test, 1, count, "failed append must not change the catalog")
}

// TestAppend_CapacityExceeded verifies that a full catalog rejects appends.
func (suite *CatalogTestSuite) TestAppend_CapacityExceeded(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 3)
	ctx := context.Background()

	assert.Equal(test, 3, catalog.Capacity())
	appendAll(test, catalog, "f0", "f1", "f2")

	_, err := catalog.Append(ctx, "f3")
	requireCode(test, err, metadata.ErrCapacityExceeded)
	assert.True(test, metadata.IsCapacityExceededError(err))

	_, err = catalog.Lookup(ctx, "f3")
	requireCode(test, err, metadata.ErrNotFound)
}

// TestAppend_DefaultCapacity verifies the default bound.
func (suite *CatalogTestSuite) TestAppend_DefaultCapacity(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 0)
	ctx := context.Background()

	require.Equal(test, metadata.DefaultCapacity, catalog.Capacity())

	for i := range metadata.DefaultCapacity {
		_, err := catalog.Append(ctx, fmt.Sprintf("d%03d", i))
		require.NoError(test, err)
	}

	_, err := catalog.Append(ctx, "overflow")
	requireCode(test, err, metadata.ErrCapacityExceeded)
}

// TestAppend_CanceledContext verifies that a canceled context is honored.
func (suite *CatalogTestSuite) TestAppend_CanceledContext(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.Append(ctx, "a")
	require.ErrorIs(test, err, context.Canceled)
}

// TestLookup_ExactNameOnly verifies that lookups never match by prefix.
func (suite *CatalogTestSuite) TestLookup_ExactNameOnly(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 0)
	ctx := context.Background()

	appendAll(test, catalog, "a/b")

	_, err := catalog.Lookup(ctx, "a")
	requireCode(test, err, metadata.ErrNotFound)
	assert.True(test, metadata.IsNotFoundError(err))

	_, err = catalog.Lookup(ctx, "a/b/c")
	requireCode(test, err, metadata.ErrNotFound)

	entry, err := catalog.Lookup(ctx, "a/b")
	require.NoError(test, err)
	assert.Equal(test, "a/b", entry.Name)
}

// TestLookup_GetByID verifies retrieval through the stable identity.
func (suite *CatalogTestSuite) TestLookup_GetByID(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entries := appendAll(test, catalog, "x", "y")

	got, err := catalog.Get(ctx, entries[1].ID)
	require.NoError(test, err)
	assert.Equal(test, "y", got.Name)
	assert.Equal(test, entries[1].ID, got.ID)

	_, err = catalog.Get(ctx, metadata.NewEntryID())
	requireCode(test, err, metadata.ErrNotFound)
}

// TestLookup_ReturnsCopy verifies that callers cannot mutate stored state.
func (suite *CatalogTestSuite) TestLookup_ReturnsCopy(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entry := appendAll(test, catalog, "f")[0]
	require.NoError(test, catalog.SetContent(ctx, entry.ID, []byte("abc")))

	got, err := catalog.Lookup(ctx, "f")
	require.NoError(test, err)
	got.Content[0] = 'z'
	got.Name = "changed"

	again, err := catalog.Lookup(ctx, "f")
	require.NoError(test, err)
	assert.Equal(test, []byte("abc"), again.Content)
	assert.Equal(test, "f", again.Name)
}

// TestContent_FileStartsEmpty verifies that new files have empty, non-nil content.
func (suite *CatalogTestSuite) TestContent_FileStartsEmpty(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entry := appendAll(test, catalog, "empty")[0]

	content, err := catalog.Content(ctx, entry.ID)
	require.NoError(test, err)
	assert.NotNil(test, content)
	assert.Empty(test, content)
}

// TestContent_SetAndGet verifies content replacement.
func (suite *CatalogTestSuite) TestContent_SetAndGet(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entry := appendAll(test, catalog, "data")[0]

	payload := []byte("hello")
	require.NoError(test, catalog.SetContent(ctx, entry.ID, payload))
	payload[0] = 'j'

	content, err := catalog.Content(ctx, entry.ID)
	require.NoError(test, err)
	assert.Equal(test, []byte("hello"), content, "catalog must own its copy")

	large := bytes.Repeat([]byte{0xAB}, 64*1024)
	require.NoError(test, catalog.SetContent(ctx, entry.ID, large))
	content, err = catalog.Content(ctx, entry.ID)
	require.NoError(test, err)
	assert.Equal(test, large, content)

	require.NoError(test, catalog.SetContent(ctx, entry.ID, []byte{}))
	content, err = catalog.Content(ctx, entry.ID)
	require.NoError(test, err)
	assert.Empty(test, content)
}

// TestContent_DirectoryRejected verifies that directories have no content.
func (suite *CatalogTestSuite) TestContent_DirectoryRejected(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 0)
	ctx := context.Background()

	entry := appendAll(test, catalog, "dir")[0]

	err := catalog.SetContent(ctx, entry.ID, []byte("x"))
	requireCode(test, err, metadata.ErrInvalidArgument)
}

// TestContent_UnknownID verifies error reporting for unknown entries.
func (suite *CatalogTestSuite) TestContent_UnknownID(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	_, err := catalog.Content(ctx, metadata.NewEntryID())
	requireCode(test, err, metadata.ErrNotFound)

	err = catalog.SetContent(ctx, metadata.NewEntryID(), []byte("x"))
	requireCode(test, err, metadata.ErrNotFound)
}

// TestTimestamps_StartUninitialized verifies the lazy timestamp state.
func (suite *CatalogTestSuite) TestTimestamps_StartUninitialized(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 0)

	entry := appendAll(test, catalog, "d")[0]

	assert.False(test, entry.Times.Initialized)
	assert.True(test, entry.Times.Atime.IsZero())
	assert.True(test, entry.Times.Mtime.IsZero())
	assert.True(test, entry.Times.Ctime.IsZero())
}

// TestTimestamps_SetAndGet verifies timestamp replacement.
func (suite *CatalogTestSuite) TestTimestamps_SetAndGet(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entry := appendAll(test, catalog, "f")[0]

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := metadata.Timestamps{
		Atime:       base,
		Mtime:       base.Add(time.Second),
		Ctime:       base.Add(2 * time.Second),
		Initialized: true,
	}
	require.NoError(test, catalog.SetTimestamps(ctx, entry.ID, ts))

	got, err := catalog.Get(ctx, entry.ID)
	require.NoError(test, err)
	require.True(test, got.Times.Initialized)
	assert.True(test, ts.Atime.Equal(got.Times.Atime))
	assert.True(test, ts.Mtime.Equal(got.Times.Mtime))
	assert.True(test, ts.Ctime.Equal(got.Times.Ctime))

	err = catalog.SetTimestamps(ctx, metadata.NewEntryID(), ts)
	requireCode(test, err, metadata.ErrNotFound)
}

// TestTimestamps_FarPastAndFuture verifies that times outside the range of a
// nanosecond Unix count survive a round trip.
func (suite *CatalogTestSuite) TestTimestamps_FarPastAndFuture(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entry := appendAll(test, catalog, "f")[0]

	ts := metadata.Timestamps{
		Atime:       time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
		Mtime:       time.Date(2300, 1, 1, 0, 0, 0, 123456789, time.UTC),
		Ctime:       time.Date(1969, 12, 31, 23, 59, 59, 500, time.UTC),
		Initialized: true,
	}
	require.NoError(test, catalog.SetTimestamps(ctx, entry.ID, ts))

	got, err := catalog.Get(ctx, entry.ID)
	require.NoError(test, err)
	assert.True(test, ts.Atime.Equal(got.Times.Atime), "atime: got %v", got.Times.Atime)
	assert.True(test, ts.Mtime.Equal(got.Times.Mtime), "mtime: got %v", got.Times.Mtime)
	assert.True(test, ts.Ctime.Equal(got.Times.Ctime), "ctime: got %v", got.Times.Ctime)
}

// TestRemove_CompactsPreservingOrder verifies that removal keeps relative order.
func (suite *CatalogTestSuite) TestRemove_CompactsPreservingOrder(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	ctx := context.Background()

	entries := appendAll(test, catalog, "a", "b", "c", "d")

	require.NoError(test, catalog.Remove(ctx, entries[1].ID))
	assert.Equal(test, []string{"a", "c", "d"}, scanNames(test, catalog))

	require.NoError(test, catalog.Remove(ctx, entries[0].ID))
	assert.Equal(test, []string{"c", "d"}, scanNames(test, catalog))

	// Survivors remain addressable through their IDs after compaction.
	got, err := catalog.Get(ctx, entries[3].ID)
	require.NoError(test, err)
	assert.Equal(test, "d", got.Name)

	appendAll(test, catalog, "e")
	assert.Equal(test, []string{"c", "d", "e"}, scanNames(test, catalog))
}

// TestRemove_FreesNameAndSlot verifies that removal releases name and capacity.
func (suite *CatalogTestSuite) TestRemove_FreesNameAndSlot(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 2)
	ctx := context.Background()

	entries := appendAll(test, catalog, "x", "y")

	_, err := catalog.Append(ctx, "z")
	requireCode(test, err, metadata.ErrCapacityExceeded)

	require.NoError(test, catalog.Remove(ctx, entries[0].ID))

	_, err = catalog.Lookup(ctx, "x")
	requireCode(test, err, metadata.ErrNotFound)

	again, err := catalog.Append(ctx, "x")
	require.NoError(test, err)
	assert.NotEqual(test, entries[0].ID, again.ID, "re-created entry gets a new identity")
	assert.Equal(test, []string{"y", "x"}, scanNames(test, catalog))

	count, err := catalog.Count(ctx)
	require.NoError(test, err)
	assert.Equal(test, 2, count)
}

// TestRemove_UnknownID verifies error reporting for unknown entries.
func (suite *CatalogTestSuite) TestRemove_UnknownID(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)

	err := catalog.Remove(context.Background(), metadata.NewEntryID())
	requireCode(test, err, metadata.ErrNotFound)
}

// TestScan_InsertionOrder verifies that Scan visits entries in append order.
func (suite *CatalogTestSuite) TestScan_InsertionOrder(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindDirectory, 0)

	// Names deliberately out of lexical order.
	names := []string{"zeta", "alpha", "m/n", "beta", "a"}
	appendAll(test, catalog, names...)

	assert.Equal(test, names, scanNames(test, catalog))
}

// TestScan_StopsOnError verifies that a callback error ends the scan.
func (suite *CatalogTestSuite) TestScan_StopsOnError(test *testing.T) {
	catalog := suite.newCatalog(test, metadata.KindFile, 0)
	appendAll(test, catalog, "a", "b", "c")

	stop := errors.New("stop")
	visited := 0
	err := catalog.Scan(context.Background(), func(*metadata.Entry) error {
		visited++
		if visited == 2 {
			return stop
		}
		return nil
	})

	require.ErrorIs(test, err, stop)
	assert.Equal(test, 2, visited)
}
