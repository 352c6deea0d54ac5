package badger

import "fmt"

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize different
// data types into logical namespaces.
//
// Key Namespace Prefixes:
//
// Data Type             Prefix   Key Format                               Value Type
// ===================================================================================
// File Record           "f:"     f:<id>                                   fileEntry (JSON)
// Listing Index         "i:"     i:<ownerId>:<parentId>:<seq %020d>       id (bytes)
// User                  "u:"     u:<id>                                   User (JSON)
// Email Index           "e:"     e:<normalized email>                     id (bytes)
// Sequence              "seq:"   seq:files                                badger.Sequence state
//
// Key Design Rationale:
//
// 1. File Record (f:)
//    - One entry per file, image or folder; point lookup by id
//
// 2. Listing Index (i:)
//    - One entry per record, grouped by owner and parent
//    - The zero-padded sequence makes lexical key order equal creation order,
//      so a prefix scan over "i:<owner>:<parent>:" yields a page directly
//    - Owner and parent ids are UUIDs or "0" and never contain ':'
//
// 3. Users (u:, e:)
//    - The email index enforces uniqueness inside the same transaction that
//      writes the user

const (
	prefixFile  = "f:"
	prefixIndex = "i:"
	prefixUser  = "u:"
	prefixEmail = "e:"

	sequenceFiles = "seq:files"
)

func keyFile(id string) []byte {
	return []byte(prefixFile + id)
}

func keyIndexPrefix(ownerID, parentID string) []byte {
	return []byte(prefixIndex + ownerID + ":" + parentID + ":")
}

func keyIndex(ownerID, parentID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%020d", prefixIndex, ownerID, parentID, seq))
}

func keyUser(id string) []byte {
	return []byte(prefixUser + id)
}

func keyEmail(normalizedEmail string) []byte {
	return []byte(prefixEmail + normalizedEmail)
}
