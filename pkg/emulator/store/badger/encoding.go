package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

// ============================================================================
// Key Namespace
// ============================================================================
//
// Data Type        Prefix   Key Format                    Value
// ====================================================================
// Object record    "o:"     o:<id>                        Record (JSON)
// Child index      "c:"     c:<parentID>:<seq hex16>      childID (bytes)
// Sequence         "meta:"  meta:seq                      uint64 (binary)
//
// The child index key embeds the sibling sequence number as fixed-width hex
// so a prefix scan returns children in insertion order.

const (
	prefixObject = "o:"
	prefixChild  = "c:"
	keySeq       = "meta:seq"
)

func keyObject(id string) []byte {
	return []byte(prefixObject + id)
}

func keyChild(parentID string, seq uint64) []byte {
	return fmt.Appendf(nil, "%s%s:%016x", prefixChild, parentID, seq)
}

func keyChildPrefix(parentID string) []byte {
	return []byte(prefixChild + parentID + ":")
}

func encodeRecord(rec *store.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*store.Record, error) {
	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid uint64 bytes: expected 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
