package files

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
)

// sniffLen is how many leading bytes are inspected when the name has no
// known extension. mimetype reads at most 3072 bytes by default.
const sniffLen = 3072

// Content is an open blob ready to be streamed. The caller must close Reader.
type Content struct {
	Reader   io.ReadCloser
	MimeType string
	Size     int64
	Name     string
}

// ReadContent opens a record's bytes, or one of its thumbnails when size is
// non-empty.
//
// Checks run in this order:
//  1. the record exists and is public or owned by requesterID (else NotFound)
//  2. the record is not a folder (else InvalidOperation)
//  3. size is empty or one of the thumbnail widths (else Validation)
//  4. the blob exists (else NotFound; thumbnails may not be generated yet)
//
// requesterID is empty for anonymous callers.
func (m *Manager) ReadContent(ctx context.Context, requesterID, id, size string) (c *Content, err error) {
	variant := "original"
	if size != "" {
		variant = size
	}
	defer func() {
		m.metrics.RecordRead(variant, err)
	}()

	record, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.VisibleTo(requesterID) {
		return nil, notFoundError()
	}
	if record.Type == metadata.FileTypeFolder {
		return nil, &Error{Kind: KindInvalidOperation, Message: MsgFolderHasNoData}
	}

	blobID := record.ContentID
	blobSize := record.Size
	if size != "" {
		width, ok := thumbnail.ParseWidth(size)
		if !ok {
			return nil, validationError(MsgInvalidSize)
		}
		blobID = content.ThumbnailID(record.ContentID, width)

		blobSize, err = m.cs.GetContentSize(ctx, blobID)
		if err != nil {
			return nil, contentError("get thumbnail size", err)
		}
	}

	reader, err := m.cs.ReadContent(ctx, blobID)
	if err != nil {
		return nil, contentError("read content", err)
	}

	c = &Content{
		Reader: reader,
		Size:   blobSize,
		Name:   record.Name,
	}
	c.MimeType = mime.TypeByExtension(filepath.Ext(record.Name))
	if c.MimeType == "" {
		c.MimeType, c.Reader = sniff(reader)
	}
	return c, nil
}

// contentError maps a missing blob to NotFound and anything else to upstream.
func contentError(op string, err error) *Error {
	if errors.Is(err, content.ErrContentNotFound) {
		return notFoundError()
	}
	return upstreamError(op, err)
}

// sniff detects the MIME type from the first bytes of rc without consuming
// them. mimetype falls back to application/octet-stream.
func sniff(rc io.ReadCloser) (string, io.ReadCloser) {
	br := bufio.NewReaderSize(rc, sniffLen)
	head, _ := br.Peek(sniffLen)
	return mimetype.Detect(head).String(), &bufferedReadCloser{Reader: br, Closer: rc}
}

type bufferedReadCloser struct {
	*bufio.Reader
	io.Closer
}
