package testing

import (
	"context"
	"testing"

	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/stretchr/testify/require"
)

// newCatalog creates a catalog and closes it when the test ends.
func (suite *CatalogTestSuite) newCatalog(test *testing.T, kind metadata.EntryKind, capacity int) metadata.Catalog {
	test.Helper()

	catalog := suite.NewCatalog(test, kind, capacity)
	test.Cleanup(func() { _ = catalog.Close() })
	return catalog
}

// appendAll appends every name and fails the test on the first error.
func appendAll(test *testing.T, catalog metadata.Catalog, names ...string) []*metadata.Entry {
	test.Helper()

	entries := make([]*metadata.Entry, 0, len(names))
	for _, name := range names {
		entry, err := catalog.Append(context.Background(), name)
		require.NoError(test, err, "append %q", name)
		entries = append(entries, entry)
	}
	return entries
}

// scanNames returns the names of all entries in scan order.
func scanNames(test *testing.T, catalog metadata.Catalog) []string {
	test.Helper()

	var names []string
	err := catalog.Scan(context.Background(), func(entry *metadata.Entry) error {
		names = append(names, entry.Name)
		return nil
	})
	require.NoError(test, err)
	return names
}

// requireCode asserts that err is a *metadata.StoreError with the given code.
func requireCode(test *testing.T, err error, code metadata.ErrorCode) {
	test.Helper()

	require.Error(test, err)
	got, ok := metadata.CodeOf(err)
	require.True(test, ok, "expected *metadata.StoreError, got %T: %v", err, err)
	require.Equal(test, code, got, "unexpected error code: %v", err)
}
