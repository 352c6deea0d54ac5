package badger

import (
	"context"
	"testing"

	"github.com/marmos91/filesmanager/pkg/session"
	sessiontesting "github.com/marmos91/filesmanager/pkg/session/testing"
)

func TestBadgerSessionStore(t *testing.T) {
	suite := &sessiontesting.StoreTestSuite{
		NewStore: func() session.Store {
			store, err := NewBadgerSessionStore(context.Background(), BadgerSessionStoreConfig{InMemory: true})
			if err != nil {
				t.Fatalf("Failed to create BadgerSessionStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}
