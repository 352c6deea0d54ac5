package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/filesmanager/pkg/metadata"
)

// Serialization Strategy
// ======================
//
// Records and users are stored as JSON: human-readable, easy to debug with
// badger's CLI, and tolerant of added fields. Index values are raw id bytes.

// fileEntry is the persisted form of a FileRecord.
//
// FileRecord.Seq is hidden from API responses, so it is stored explicitly.
type fileEntry struct {
	Record *metadata.FileRecord `json:"record"`
	Seq    uint64               `json:"seq"`
}

func encodeFile(record *metadata.FileRecord) ([]byte, error) {
	data, err := json.Marshal(fileEntry{Record: record, Seq: record.Seq})
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return data, nil
}

func decodeFile(data []byte) (*metadata.FileRecord, error) {
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	if entry.Record == nil {
		return nil, fmt.Errorf("failed to decode file record: empty entry")
	}
	entry.Record.Seq = entry.Seq
	return entry.Record, nil
}

func encodeUser(user *metadata.User) ([]byte, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*metadata.User, error) {
	var user metadata.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}
