package testing

import (
	"testing"

	"github.com/marmos91/filesmanager/pkg/metadata"
)

// StoreTestSuite is a comprehensive test suite for MetadataStore implementations.
// It tests the interface contract, not implementation details, making it reusable
// across different implementations (memory, badger).
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh MetadataStore instance
	// for each test. This ensures test isolation.
	NewStore func() metadata.MetadataStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("File", suite.RunFileTests)
	test.Run("Listing", suite.RunListingTests)
	test.Run("Authentication", suite.RunAuthenticationTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}
