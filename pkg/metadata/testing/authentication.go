package testing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunAuthenticationTests(test *testing.T) {
	test.Run("CreateUser_Success", suite.TestCreateUser_Success)
	test.Run("CreateUser_DuplicateEmail", suite.TestCreateUser_DuplicateEmail)
	test.Run("CreateUser_EmailCaseInsensitive", suite.TestCreateUser_EmailCaseInsensitive)
	test.Run("CreateUser_InvalidUser", suite.TestCreateUser_InvalidUser)
	test.Run("GetUser_NotFound", suite.TestGetUser_NotFound)
	test.Run("GetUserByEmail_NotFound", suite.TestGetUserByEmail_NotFound)
	test.Run("CountUsers", suite.TestCountUsers)
}

func (suite *StoreTestSuite) TestCreateUser_Success(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	user := NewUser("bob@dylan.com")

	// Act
	err := store.CreateUser(ctx, user)

	// Assert
	require.NoError(test, err)

	byID, err := store.GetUser(ctx, user.ID)
	require.NoError(test, err)
	assert.Equal(test, user.Email, byID.Email)
	assert.Equal(test, user.PasswordHash, byID.PasswordHash)

	byEmail, err := store.GetUserByEmail(ctx, user.Email)
	require.NoError(test, err)
	assert.Equal(test, user.ID, byEmail.ID)
}

func (suite *StoreTestSuite) TestCreateUser_DuplicateEmail(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	require.NoError(test, store.CreateUser(ctx, NewUser("bob@dylan.com")))

	err := store.CreateUser(ctx, NewUser("bob@dylan.com"))

	require.Error(test, err)
	assert.True(test, metadata.IsAlreadyExistsError(err), "expected AlreadyExists, got %v", err)
}

func (suite *StoreTestSuite) TestCreateUser_EmailCaseInsensitive(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	user := NewUser("Bob@Dylan.com")
	require.NoError(test, store.CreateUser(ctx, user))

	got, err := store.GetUserByEmail(ctx, "bob@dylan.com")
	require.NoError(test, err)
	assert.Equal(test, user.ID, got.ID)
	assert.Equal(test, "Bob@Dylan.com", got.Email, "stored email keeps its original case")

	err = store.CreateUser(ctx, NewUser(" BOB@dylan.COM "))
	assert.True(test, metadata.IsAlreadyExistsError(err))
}

func (suite *StoreTestSuite) TestCreateUser_InvalidUser(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	assert.Error(test, store.CreateUser(ctx, nil))
	assert.Error(test, store.CreateUser(ctx, &metadata.User{ID: uuid.NewString()}))
	assert.Error(test, store.CreateUser(ctx, &metadata.User{Email: "x@y.z"}))
}

func (suite *StoreTestSuite) TestGetUser_NotFound(test *testing.T) {
	store := suite.NewStore()

	_, err := store.GetUser(context.Background(), uuid.NewString())

	assert.True(test, metadata.IsNotFoundError(err))
}

func (suite *StoreTestSuite) TestGetUserByEmail_NotFound(test *testing.T) {
	store := suite.NewStore()

	_, err := store.GetUserByEmail(context.Background(), "nobody@nowhere.com")

	assert.True(test, metadata.IsNotFoundError(err))
}

func (suite *StoreTestSuite) TestCountUsers(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	require.NoError(test, store.CreateUser(ctx, NewUser("a@b.c")))
	require.NoError(test, store.CreateUser(ctx, NewUser("d@e.f")))

	count, err := store.CountUsers(ctx)

	require.NoError(test, err)
	assert.Equal(test, 2, count)
}
