package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a conformance suite for session.Store implementations.
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func() session.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("SetGet", suite.testSetGet)
	t.Run("Get_Unknown", suite.testGetUnknown)
	t.Run("Expiry", suite.testExpiry)
	t.Run("Delete", suite.testDelete)
	t.Run("Delete_Unknown", suite.testDeleteUnknown)
	t.Run("Set_Overwrites", suite.testSetOverwrites)
}

func (suite *StoreTestSuite) newStore(t *testing.T) session.Store {
	t.Helper()
	store := suite.NewStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func (suite *StoreTestSuite) testSetGet(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()
	token := uuid.NewString()

	require.NoError(t, store.Set(ctx, token, "user-1", time.Hour))

	userID, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func (suite *StoreTestSuite) testGetUnknown(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Get(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func (suite *StoreTestSuite) testExpiry(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()
	token := uuid.NewString()

	// BadgerDB TTLs have one-second resolution.
	require.NoError(t, store.Set(ctx, token, "user-1", time.Second))

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, token)
		return err == session.ErrSessionNotFound
	}, 3*time.Second, 50*time.Millisecond)
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()
	token := uuid.NewString()
	require.NoError(t, store.Set(ctx, token, "user-1", time.Hour))

	require.NoError(t, store.Delete(ctx, token))

	_, err := store.Get(ctx, token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func (suite *StoreTestSuite) testDeleteUnknown(t *testing.T) {
	store := suite.newStore(t)

	err := store.Delete(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func (suite *StoreTestSuite) testSetOverwrites(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()
	token := uuid.NewString()

	require.NoError(t, store.Set(ctx, token, "user-1", time.Hour))
	require.NoError(t, store.Set(ctx, token, "user-2", time.Hour))

	userID, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)
}
