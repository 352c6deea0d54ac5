package e2e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filesmanager/test/e2e/framework"
)

// TestRestartKeepsState checks that users, sessions, records and blobs
// survive a restart with persistent backends.
func TestRestartKeepsState(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	tc := &TestConfig{Name: "badger-filesystem", MetadataStore: MetadataBadger, ContentStore: ContentFilesystem}
	dataDir := t.TempDir()

	first := framework.NewTestServer(t, tc.Build(t, dataDir))
	first.Start()

	alice := first.Client()
	alice.SignUp("alice@example.com", "secret")
	doc := alice.CreateFile(map[string]any{"name": "todo.txt", "type": "file", "data": "YnV5IG1pbGs="})
	docID := doc["id"].(string)
	token := alice.Token

	first.Stop()

	second := framework.NewTestServer(t, tc.Build(t, dataDir))
	second.Start()

	alice = second.Client()
	alice.Token = token

	var me map[string]any
	alice.Do(http.MethodGet, "/users/me", nil).Expect(t, http.StatusOK).JSON(t, &me)
	assert.Equal(t, "alice@example.com", me["email"])

	data := alice.Do(http.MethodGet, "/files/"+docID+"/data", nil).Expect(t, http.StatusOK)
	assert.Equal(t, "buy milk", string(data.Body))

	var files []map[string]any
	alice.Do(http.MethodGet, "/files", nil).Expect(t, http.StatusOK).JSON(t, &files)
	require.Len(t, files, 1)
	assert.Equal(t, docID, files[0]["id"])
}
