package testing

import (
	"testing"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// CatalogTestSuite is a conformance suite for metadata.Catalog implementations.
// It tests the interface contract, not implementation details, so every
// backend (memory, badger) runs the same assertions.
type CatalogTestSuite struct {
	// NewCatalog creates a fresh, empty catalog for each test.
	// A capacity of zero selects the backend default.
	NewCatalog func(test *testing.T, kind metadata.EntryKind, capacity int) metadata.Catalog
}

// Run executes all tests in the suite.
func (suite *CatalogTestSuite) Run(test *testing.T) {
	test.Run("Append", suite.RunAppendTests)
	test.Run("Lookup", suite.RunLookupTests)
	test.Run("Content", suite.RunContentTests)
	test.Run("Timestamps", suite.RunTimestampTests)
	test.Run("Remove", suite.RunRemoveTests)
	test.Run("Scan", suite.RunScanTests)
}
