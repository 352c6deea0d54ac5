// Package files implements the File Manager: validation, ownership and
// visibility rules over the metadata store, blob store and thumbnail queue.
//
// Every operation returns *Error on failure. Collaborator failures, context
// deadlines included, surface as KindUpstream; the first rule a request
// breaks is the one reported.
package files

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
)

// DefaultPageSize is the number of records per listing page.
const DefaultPageSize = 20

// cleanupTimeout bounds the best-effort blob removal after a failed create.
const cleanupTimeout = 10 * time.Second

var validate = validator.New()

// Metrics observes File Manager activity.
//
// pkg/metrics provides the Prometheus implementation. A nil Metrics in
// Options disables collection.
type Metrics interface {
	// RecordCreate records a creation attempt by file type.
	RecordCreate(fileType string, err error)

	// RecordEnqueueFailure counts thumbnail jobs that could not be queued.
	RecordEnqueueFailure()

	// RecordRead records a content read; variant is "original" or a width.
	RecordRead(variant string, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordCreate(string, error) {}
func (noopMetrics) RecordEnqueueFailure()      {}
func (noopMetrics) RecordRead(string, error)   {}

// Options configures a Manager.
type Options struct {
	// PageSize is the listing page size (default: 20)
	PageSize int

	// Metrics is optional.
	Metrics Metrics
}

// Manager orchestrates file operations.
type Manager struct {
	md       metadata.MetadataStore
	cs       content.ContentStore
	queue    queue.Queue
	pageSize int
	metrics  Metrics
}

// NewManager creates a File Manager over its three collaborators.
func NewManager(md metadata.MetadataStore, cs content.ContentStore, q queue.Queue, opts Options) *Manager {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &Manager{
		md:       md,
		cs:       cs,
		queue:    q,
		pageSize: opts.PageSize,
		metrics:  opts.Metrics,
	}
}

// PageSize returns the listing page size.
func (m *Manager) PageSize() int {
	return m.pageSize
}

// ============================================================================
// Create
// ============================================================================

// CreateRequest is the input of Create.
//
// Field order matters: validation reports the first failing field, which
// yields the documented message order (name, type, data).
type CreateRequest struct {
	Name     string `validate:"required"`
	Type     string `validate:"required,oneof=folder file image"`
	Data     string `validate:"required_unless=Type folder"`
	ParentID string
	IsPublic bool
}

// Create validates req and stores a new record owned by ownerID.
//
// For files and images the decoded payload is written to the blob store
// first, then the record is created. Images with a parent folder get a
// thumbnail job once both are durable; a failed enqueue is logged and does
// not fail the creation.
//
// Parameters:
//   - ctx: Context for cancellation
//   - ownerID: Authenticated caller
//   - req: Request fields
//
// Returns:
//   - *metadata.FileRecord: The created record
//   - error: *Error (validation, unauthorized or upstream)
func (m *Manager) Create(ctx context.Context, ownerID string, req CreateRequest) (record *metadata.FileRecord, err error) {
	defer func() {
		m.metrics.RecordCreate(req.Type, err)
	}()

	if ownerID == "" {
		return nil, &Error{Kind: KindUnauthorized, Message: MsgUnauthorized}
	}

	// ========================================================================
	// Step 1: Validate request fields
	// ========================================================================

	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, requestError(err)
	}
	fileType := metadata.FileType(req.Type)

	var data []byte
	if fileType.HasContent() {
		data, err = base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, validationError(MsgInvalidData)
		}
	}

	// ========================================================================
	// Step 2: Resolve parent
	// ========================================================================

	parentID := req.ParentID
	if parentID == "" {
		parentID = metadata.RootParentID
	}
	if parentID != metadata.RootParentID {
		parent, err := m.md.GetFile(ctx, parentID)
		if err != nil {
			if metadata.IsNotFoundError(err) {
				return nil, validationError(MsgParentNotFound)
			}
			return nil, upstreamError("get parent", err)
		}
		if parent.OwnerID != ownerID {
			return nil, validationError(MsgParentNotFound)
		}
		if parent.Type != metadata.FileTypeFolder {
			return nil, validationError(MsgParentNotFolder)
		}
	}

	record = &metadata.FileRecord{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Type:      fileType,
		OwnerID:   ownerID,
		ParentID:  parentID,
		IsPublic:  req.IsPublic,
		CreatedAt: time.Now().UTC(),
	}

	// ========================================================================
	// Step 3: Write blob, then record
	// ========================================================================

	if fileType.HasContent() {
		contentID := uuid.New().String()
		if err := m.cs.WriteContent(ctx, contentID, data); err != nil {
			return nil, upstreamError("write content", err)
		}
		record.ContentID = contentID
		record.LocalPath = m.cs.Location(contentID)
		record.Size = int64(len(data))
	}

	if err := m.md.CreateFile(ctx, record); err != nil {
		if record.ContentID != "" {
			m.discardContent(ctx, record.ContentID)
		}
		return nil, upstreamError("create record", err)
	}

	logger.Debug("File created: id=%s type=%s owner=%s parent=%s size=%d",
		record.ID, record.Type, ownerID, parentID, record.Size)

	// ========================================================================
	// Step 4: Queue thumbnails
	// ========================================================================

	if fileType == metadata.FileTypeImage && parentID != metadata.RootParentID {
		m.enqueueThumbnails(ctx, record)
	}

	return record, nil
}

// requestError maps the first failed field to its message.
func requestError(err error) *Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		switch errs[0].Field() {
		case "Name":
			return validationError(MsgMissingName)
		case "Type":
			return validationError(MsgMissingType)
		case "Data":
			return validationError(MsgMissingData)
		}
	}
	return validationError(err.Error())
}

// discardContent removes a blob whose record could not be created. Failure
// is logged only: the garbage collector reclaims unreferenced blobs.
func (m *Manager) discardContent(ctx context.Context, contentID string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := m.cs.Delete(cleanupCtx, contentID); err != nil {
		logger.Warn("Failed to discard content %s after record failure: %v", contentID, err)
	}
}

func (m *Manager) enqueueThumbnails(ctx context.Context, record *metadata.FileRecord) {
	payload, err := json.Marshal(thumbnail.Job{FileID: record.ID, OwnerID: record.OwnerID})
	if err == nil {
		var job *queue.Job
		job, err = m.queue.Enqueue(ctx, payload)
		if err == nil {
			logger.Debug("Thumbnail job queued: job=%s file=%s", job.ID, record.ID)
			return
		}
	}
	m.metrics.RecordEnqueueFailure()
	logger.Warn("Failed to queue thumbnails for file %s: %v", record.ID, err)
}

// ============================================================================
// Read
// ============================================================================

// Get returns a record by id without ownership checks.
func (m *Manager) Get(ctx context.Context, id string) (*metadata.FileRecord, error) {
	record, err := m.md.GetFile(ctx, id)
	if err != nil {
		if metadata.IsNotFoundError(err) {
			return nil, notFoundError()
		}
		return nil, upstreamError("get file", err)
	}
	return record, nil
}

// GetOwned returns a record owned by ownerID. Records of other users are
// reported as not found.
func (m *Manager) GetOwned(ctx context.Context, ownerID, id string) (*metadata.FileRecord, error) {
	record, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, notFoundError()
	}
	return record, nil
}

// List returns page of ownerID's records under parentID in creation order.
// An empty parentID means the root. Pages are zero-based; negative pages
// are treated as 0 and pages past the end are empty.
func (m *Manager) List(ctx context.Context, ownerID, parentID string, page int) ([]*metadata.FileRecord, error) {
	if parentID == "" {
		parentID = metadata.RootParentID
	}
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/m.pageSize {
		return []*metadata.FileRecord{}, nil
	}

	records, err := m.md.ListFiles(ctx, ownerID, parentID, page*m.pageSize, m.pageSize)
	if err != nil {
		return nil, upstreamError("list files", err)
	}
	if records == nil {
		records = []*metadata.FileRecord{}
	}
	return records, nil
}

// ============================================================================
// Update
// ============================================================================

// SetVisibility sets isPublic on a record owned by requesterID and returns
// the updated record.
func (m *Manager) SetVisibility(ctx context.Context, requesterID, id string, isPublic bool) (*metadata.FileRecord, error) {
	if _, err := m.GetOwned(ctx, requesterID, id); err != nil {
		return nil, err
	}

	record, err := m.md.SetPublic(ctx, id, isPublic)
	if err != nil {
		if metadata.IsNotFoundError(err) {
			return nil, notFoundError()
		}
		return nil, upstreamError("set visibility", err)
	}

	logger.Debug("File visibility changed: id=%s public=%t", id, isPublic)
	return record, nil
}

// ============================================================================
// Stats
// ============================================================================

// Stats is the number of users and records.
type Stats struct {
	Users int `json:"users"`
	Files int `json:"files"`
}

// Stats counts users and records.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	users, err := m.md.CountUsers(ctx)
	if err != nil {
		return Stats{}, upstreamError("count users", err)
	}
	count, err := m.md.CountFiles(ctx)
	if err != nil {
		return Stats{}, upstreamError("count files", err)
	}
	return Stats{Users: users, Files: count}, nil
}
