package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/files"
	"github.com/marmos91/filesmanager/pkg/metadata"
)

const msgInvalidBody = "Invalid request body"

// looseID accepts an id sent either as a JSON string or a number, since
// clients send the root parent as 0.
type looseID string

func (id *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = looseID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = looseID(n.String())
	return nil
}

type createFileRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID looseID `json:"parentId"`
	IsPublic bool    `json:"isPublic"`
	Data     string  `json:"data"`
}

// decodeJSON reads a size-limited JSON body into v. An empty body leaves v
// zeroed so field validation reports what is missing.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *handler) createFile(w http.ResponseWriter, r *http.Request) {
	var body createFileRequest
	if err := h.decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	record, err := h.files.Create(r.Context(), userFrom(r.Context()).ID, files.CreateRequest{
		Name:     body.Name,
		Type:     body.Type,
		Data:     body.Data,
		ParentID: string(body.ParentID),
		IsPublic: body.IsPublic,
	})
	if err != nil {
		writeFilesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *handler) getFile(w http.ResponseWriter, r *http.Request) {
	record, err := h.files.GetOwned(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeFilesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// listFiles serves GET /files?parentId=&page=. A missing or malformed page
// is page 0.
func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil {
		page = 0
	}

	records, err := h.files.List(r.Context(), userFrom(r.Context()).ID, query.Get("parentId"), page)
	if err != nil {
		writeFilesError(w, r, err)
		return
	}
	if records == nil {
		records = []*metadata.FileRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) publish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h *handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *handler) setVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
	record, err := h.files.SetVisibility(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), isPublic)
	if err != nil {
		writeFilesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// fileData streams a file or one of its thumbnails. Anonymous callers only
// see public files.
func (h *handler) fileData(w http.ResponseWriter, r *http.Request) {
	var requesterID string
	if user := userFrom(r.Context()); user != nil {
		requesterID = user.ID
	}

	c, err := h.files.ReadContent(r.Context(), requesterID, chi.URLParam(r, "id"), r.URL.Query().Get("size"))
	if err != nil {
		writeFilesError(w, r, err)
		return
	}
	defer func() { _ = c.Reader.Close() }()

	w.Header().Set("Content-Type", c.MimeType)
	if c.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(c.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, c.Reader); err != nil {
		logger.Debug("Streaming %s aborted: %v", c.Name, err)
	}
}
