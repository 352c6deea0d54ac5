package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunHealthcheckTests(test *testing.T) {
	test.Run("Healthcheck_Success", suite.TestHealthcheck_Success)
	test.Run("Healthcheck_CancelledContext", suite.TestHealthcheck_CancelledContext)
}

// TestHealthcheck_Success verifies that a healthy store passes health checks.
func (suite *StoreTestSuite) TestHealthcheck_Success(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	// Act
	err := store.Healthcheck(ctx)

	// Assert
	require.NoError(test, err, "Healthy store should pass health check")
}

func (suite *StoreTestSuite) TestHealthcheck_CancelledContext(test *testing.T) {
	store := suite.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Healthcheck(ctx)

	require.ErrorIs(test, err, context.Canceled)
}
