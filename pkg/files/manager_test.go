package files

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/content"
	contentmemory "github.com/marmos91/filesmanager/pkg/content/memory"
	"github.com/marmos91/filesmanager/pkg/metadata"
	metadatamemory "github.com/marmos91/filesmanager/pkg/metadata/memory"
	"github.com/marmos91/filesmanager/pkg/queue"
	queuememory "github.com/marmos91/filesmanager/pkg/queue/memory"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

type fixture struct {
	md      *metadatamemory.MemoryMetadataStore
	cs      content.ContentStore
	queue   queue.Queue
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cs, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	return newFixtureWith(t, cs, nil)
}

func newFixtureWith(t *testing.T, cs content.ContentStore, q queue.Queue) *fixture {
	t.Helper()
	md := metadatamemory.NewMemoryMetadataStoreWithDefaults()
	if q == nil {
		q = queuememory.NewMemoryQueue(queue.Options{PollInterval: 5 * time.Millisecond})
	}
	t.Cleanup(func() {
		_ = q.Close()
		_ = md.Close()
	})
	return &fixture{
		md:      md,
		cs:      cs,
		queue:   q,
		manager: NewManager(md, cs, q, Options{}),
	}
}

func encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (f *fixture) folder(t *testing.T, owner, name string) *metadata.FileRecord {
	t.Helper()
	record, err := f.manager.Create(context.Background(), owner, CreateRequest{Name: name, Type: "folder"})
	require.NoError(t, err)
	return record
}

func (f *fixture) file(t *testing.T, owner, parent, name string, data []byte) *metadata.FileRecord {
	t.Helper()
	record, err := f.manager.Create(context.Background(), owner, CreateRequest{
		Name: name, Type: "file", ParentID: parent, Data: encode(data),
	})
	require.NoError(t, err)
	return record
}

func readAll(t *testing.T, c *Content) []byte {
	t.Helper()
	defer c.Reader.Close()
	data, err := io.ReadAll(c.Reader)
	require.NoError(t, err)
	return data
}

func requireKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, kind, ferr.Kind)
	if message != "" {
		assert.Equal(t, message, ferr.Message)
	}
}

// ============================================================================
// Create
// ============================================================================

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := encode([]byte("hello"))

	cases := []struct {
		name    string
		req     CreateRequest
		message string
	}{
		{"MissingName", CreateRequest{Type: "file", Data: data}, MsgMissingName},
		{"BlankName", CreateRequest{Name: "   ", Type: "file", Data: data}, MsgMissingName},
		{"MissingNameWins", CreateRequest{}, MsgMissingName},
		{"MissingType", CreateRequest{Name: "a.txt", Data: data}, MsgMissingType},
		{"UnknownType", CreateRequest{Name: "a.txt", Type: "video", Data: data}, MsgMissingType},
		{"MissingData", CreateRequest{Name: "a.txt", Type: "file"}, MsgMissingData},
		{"MissingImageData", CreateRequest{Name: "a.png", Type: "image"}, MsgMissingData},
		{"InvalidData", CreateRequest{Name: "a.txt", Type: "file", Data: "%%%"}, MsgInvalidData},
		{"ParentNotFound", CreateRequest{Name: "a.txt", Type: "file", Data: data, ParentID: "nope"}, MsgParentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.manager.Create(ctx, alice, tc.req)
			requireKind(t, err, KindValidation, tc.message)
		})
	}

	count, err := f.md.CountFiles(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreate_ParentMustBeFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notFolder := f.file(t, alice, "", "a.txt", []byte("x"))

	for _, fileType := range []string{"folder", "file", "image"} {
		t.Run(fileType, func(t *testing.T) {
			_, err := f.manager.Create(ctx, alice, CreateRequest{
				Name: "child", Type: fileType, ParentID: notFolder.ID, Data: encode([]byte("x")),
			})
			requireKind(t, err, KindValidation, MsgParentNotFolder)
		})
	}
}

func TestCreate_OtherUsersFolderIsNotFound(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(t, bob, "Bob's")

	_, err := f.manager.Create(context.Background(), alice, CreateRequest{
		Name: "a.txt", Type: "file", ParentID: folder.ID, Data: encode([]byte("x")),
	})
	requireKind(t, err, KindValidation, MsgParentNotFound)
}

func TestCreate_RequiresOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Create(context.Background(), "", CreateRequest{Name: "x", Type: "folder"})
	requireKind(t, err, KindUnauthorized, MsgUnauthorized)
}

func TestCreate_Folder(t *testing.T) {
	f := newFixture(t)
	record := f.folder(t, alice, "Photos")

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, metadata.FileTypeFolder, record.Type)
	assert.Equal(t, alice, record.OwnerID)
	assert.Equal(t, metadata.RootParentID, record.ParentID)
	assert.False(t, record.IsPublic)
	assert.Empty(t, record.LocalPath)
	assert.Empty(t, record.ContentID)

	blobs, err := f.cs.ListAllContent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestCreate_FileStoresBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record, err := f.manager.Create(ctx, alice, CreateRequest{
		Name: "notes.txt", Type: "file", IsPublic: true, Data: encode([]byte("hello world")),
	})
	require.NoError(t, err)

	assert.True(t, record.IsPublic)
	assert.Equal(t, int64(11), record.Size)
	assert.NotEmpty(t, record.ContentID)
	assert.Equal(t, f.cs.Location(record.ContentID), record.LocalPath)

	stored, err := f.md.GetFile(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.LocalPath, stored.LocalPath)

	size, err := f.cs.GetContentSize(ctx, record.ContentID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)
}

func TestCreate_UniqueIDs(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		record := f.folder(t, alice, fmt.Sprintf("f%d", i))
		require.False(t, seen[record.ID])
		seen[record.ID] = true
	}
}

func TestCreate_EnqueuesImagesInFolders(t *testing.T) {
	ctx := context.Background()

	t.Run("ImageInFolder", func(t *testing.T) {
		f := newFixture(t)
		folder := f.folder(t, alice, "Photos")
		record, err := f.manager.Create(ctx, alice, CreateRequest{
			Name: "a.png", Type: "image", ParentID: folder.ID, Data: encode(pngData(t, 10, 10)),
		})
		require.NoError(t, err)

		dctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		job, err := f.queue.Dequeue(dctx)
		require.NoError(t, err)

		payload, err := thumbnail.DecodeJob(job.Payload)
		require.NoError(t, err)
		assert.Equal(t, thumbnail.Job{FileID: record.ID, OwnerID: alice}, payload)
	})

	for name, req := range map[string]CreateRequest{
		"ImageAtRoot": {Name: "a.png", Type: "image", Data: encode([]byte("x"))},
		"PlainFile":   {Name: "a.txt", Type: "file", Data: encode([]byte("x"))},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.manager.Create(ctx, alice, req)
			require.NoError(t, err)

			stats, err := f.queue.Stats(ctx)
			require.NoError(t, err)
			assert.Zero(t, stats.Queued)
		})
	}
}

// failingQueue rejects every enqueue.
type failingQueue struct {
	queue.Queue
}

func (failingQueue) Enqueue(context.Context, []byte) (*queue.Job, error) {
	return nil, errors.New("queue unavailable")
}

func (failingQueue) Close() error { return nil }

func TestCreate_EnqueueFailureDoesNotFailCreate(t *testing.T) {
	cs, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	f := newFixtureWith(t, cs, failingQueue{})

	folder := f.folder(t, alice, "Photos")
	record, err := f.manager.Create(context.Background(), alice, CreateRequest{
		Name: "a.png", Type: "image", ParentID: folder.ID, Data: encode([]byte("x")),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
}

// brokenContentStore fails every write.
type brokenContentStore struct {
	content.ContentStore
}

func (brokenContentStore) WriteContent(context.Context, string, []byte) error {
	return fmt.Errorf("disk full: %w", content.ErrUnavailable)
}

func TestCreate_BlobFailureIsUpstream(t *testing.T) {
	cs, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	f := newFixtureWith(t, brokenContentStore{cs}, nil)

	_, err = f.manager.Create(context.Background(), alice, CreateRequest{
		Name: "a.txt", Type: "file", Data: encode([]byte("x")),
	})
	requireKind(t, err, KindUpstream, MsgInternalServerErr)
	assert.ErrorIs(t, err, content.ErrUnavailable)

	count, err := f.md.CountFiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

// rejectingMetadataStore fails every record creation.
type rejectingMetadataStore struct {
	metadata.MetadataStore
}

func (rejectingMetadataStore) CreateFile(context.Context, *metadata.FileRecord) error {
	return &metadata.StoreError{Code: metadata.ErrIOError, Message: "write failed"}
}

func TestCreate_RecordFailureDiscardsBlob(t *testing.T) {
	f := newFixture(t)
	f.manager = NewManager(rejectingMetadataStore{f.md}, f.cs, f.queue, Options{})

	_, err := f.manager.Create(context.Background(), alice, CreateRequest{
		Name: "a.txt", Type: "file", Data: encode([]byte("x")),
	})
	requireKind(t, err, KindUpstream, MsgInternalServerErr)

	blobs, err := f.cs.ListAllContent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestCreate_CancelledContextIsUpstream(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.Create(ctx, alice, CreateRequest{Name: "a.txt", Type: "file", Data: encode([]byte("x"))})
	requireKind(t, err, KindUpstream, MsgInternalServerErr)
}

// ============================================================================
// Get / List
// ============================================================================

func TestGetOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.folder(t, alice, "Docs")

	got, err := f.manager.GetOwned(ctx, alice, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = f.manager.GetOwned(ctx, bob, record.ID)
	assert.True(t, IsNotFound(err))

	_, err = f.manager.GetOwned(ctx, alice, "missing")
	assert.True(t, IsNotFound(err))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.folder(t, alice, "Docs")

	var want []string
	for i := 0; i < 25; i++ {
		want = append(want, f.file(t, alice, folder.ID, fmt.Sprintf("f%02d", i), []byte("x")).ID)
	}
	f.file(t, bob, "", "bob.txt", []byte("x"))

	page0, err := f.manager.List(ctx, alice, folder.ID, 0)
	require.NoError(t, err)
	page1, err := f.manager.List(ctx, alice, folder.ID, 1)
	require.NoError(t, err)
	page2, err := f.manager.List(ctx, alice, folder.ID, 2)
	require.NoError(t, err)

	require.Len(t, page0, DefaultPageSize)
	require.Len(t, page1, 5)
	assert.NotNil(t, page2)
	assert.Empty(t, page2)

	var got []string
	for _, r := range append(page0, page1...) {
		got = append(got, r.ID)
	}
	assert.Equal(t, want, got)

	root, err := f.manager.List(ctx, alice, "", 0)
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, folder.ID, root[0].ID)

	negative, err := f.manager.List(ctx, alice, folder.ID, -3)
	require.NoError(t, err)
	assert.Len(t, negative, DefaultPageSize)

	huge, err := f.manager.List(ctx, alice, folder.ID, int(^uint(0)>>1))
	require.NoError(t, err)
	assert.Empty(t, huge)
}

// ============================================================================
// SetVisibility
// ============================================================================

func TestSetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.file(t, alice, "", "a.txt", []byte("x"))

	updated, err := f.manager.SetVisibility(ctx, alice, record.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)

	updated, err = f.manager.SetVisibility(ctx, alice, record.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)

	_, err = f.manager.SetVisibility(ctx, bob, record.ID, true)
	requireKind(t, err, KindNotFound, MsgNotFound)

	_, err = f.manager.SetVisibility(ctx, alice, "missing", true)
	requireKind(t, err, KindNotFound, MsgNotFound)

	stored, err := f.md.GetFile(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublic)
}

// ============================================================================
// ReadContent
// ============================================================================

func TestReadContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	private := f.file(t, alice, "", "notes.json", []byte("private"))
	public, err := f.manager.Create(ctx, alice, CreateRequest{
		Name: "shared.txt", Type: "file", IsPublic: true, Data: encode([]byte("public")),
	})
	require.NoError(t, err)
	folder := f.folder(t, alice, "Docs")

	t.Run("OwnerReadsPrivate", func(t *testing.T) {
		c, err := f.manager.ReadContent(ctx, alice, private.ID, "")
		require.NoError(t, err)
		assert.Equal(t, []byte("private"), readAll(t, c))
		assert.Equal(t, "application/json", c.MimeType)
		assert.Equal(t, int64(7), c.Size)
		assert.Equal(t, "notes.json", c.Name)
	})

	t.Run("AnonymousReadsPublic", func(t *testing.T) {
		c, err := f.manager.ReadContent(ctx, "", public.ID, "")
		require.NoError(t, err)
		assert.Equal(t, []byte("public"), readAll(t, c))
	})

	t.Run("PrivateIsHidden", func(t *testing.T) {
		_, err := f.manager.ReadContent(ctx, "", private.ID, "")
		requireKind(t, err, KindNotFound, MsgNotFound)

		_, err = f.manager.ReadContent(ctx, bob, private.ID, "")
		requireKind(t, err, KindNotFound, MsgNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := f.manager.ReadContent(ctx, alice, "missing", "")
		requireKind(t, err, KindNotFound, MsgNotFound)
	})

	t.Run("Folder", func(t *testing.T) {
		_, err := f.manager.ReadContent(ctx, alice, folder.ID, "")
		requireKind(t, err, KindInvalidOperation, MsgFolderHasNoData)

		// Folder check precedes size validation.
		_, err = f.manager.ReadContent(ctx, alice, folder.ID, "999")
		requireKind(t, err, KindInvalidOperation, MsgFolderHasNoData)
	})

	t.Run("InvalidSize", func(t *testing.T) {
		for _, size := range []string{"999", "abc", "0", "-100", "+250", "0250", " 250", "250.0"} {
			_, err := f.manager.ReadContent(ctx, alice, private.ID, size)
			requireKind(t, err, KindValidation, MsgInvalidSize)
		}
	})

	t.Run("ThumbnailNotGenerated", func(t *testing.T) {
		_, err := f.manager.ReadContent(ctx, alice, private.ID, "250")
		requireKind(t, err, KindNotFound, MsgNotFound)
	})

	t.Run("BlobMissing", func(t *testing.T) {
		lost := f.file(t, alice, "", "lost.txt", []byte("gone"))
		require.NoError(t, f.cs.Delete(ctx, lost.ContentID))

		_, err := f.manager.ReadContent(ctx, alice, lost.ID, "")
		requireKind(t, err, KindNotFound, MsgNotFound)
	})
}

func TestReadContent_SniffsUnknownExtension(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := pngData(t, 4, 4)
	record := f.file(t, alice, "", "picture", data)

	c, err := f.manager.ReadContent(ctx, alice, record.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", c.MimeType)
	assert.Equal(t, data, readAll(t, c))

	binary := f.file(t, alice, "", "blob.unknownext", []byte{0x00, 0x01, 0x02, 0xff})
	c, err = f.manager.ReadContent(ctx, alice, binary.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", c.MimeType)
	_ = readAll(t, c)
}

// TestThumbnailScenario walks the documented end-to-end flow: a folder, an
// image inside it, a missing thumbnail before the worker runs and an
// available one after.
func TestThumbnailScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	photos := f.folder(t, alice, "Photos")
	assert.Empty(t, photos.LocalPath)

	original := pngData(t, 800, 600)
	img, err := f.manager.Create(ctx, alice, CreateRequest{
		Name: "a.png", Type: "image", ParentID: photos.ID, Data: encode(original),
	})
	require.NoError(t, err)

	_, err = f.manager.ReadContent(ctx, alice, img.ID, "250")
	requireKind(t, err, KindNotFound, MsgNotFound)

	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	job, err := f.queue.Dequeue(dctx)
	require.NoError(t, err)

	worker := thumbnail.NewWorker(f.md, f.cs, thumbnail.NewGenerator(0), nil)
	require.NoError(t, worker.Process(ctx, job))
	require.NoError(t, f.queue.Ack(ctx, job.ID))

	distinct := false
	for _, width := range thumbnail.Widths {
		c, err := f.manager.ReadContent(ctx, alice, img.ID, fmt.Sprint(width))
		require.NoError(t, err)
		data := readAll(t, c)
		assert.NotEmpty(t, data)
		assert.Equal(t, "image/png", c.MimeType)
		if len(data) != len(original) {
			distinct = true
		}
	}
	assert.True(t, distinct)
}

// ============================================================================
// Stats / errors
// ============================================================================

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.md.CreateUser(ctx, &metadata.User{ID: "u1", Email: "a@example.com"}))
	f.folder(t, alice, "a")
	f.folder(t, alice, "b")

	stats, err := f.manager.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 1, Files: 2}, stats)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUpstream, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", notFoundError())))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsValidation(validationError(MsgMissingName)))

	err := upstreamError("op", content.ErrUnavailable)
	assert.ErrorIs(t, err, content.ErrUnavailable)
	assert.Equal(t, "upstream", KindUpstream.String())
}
