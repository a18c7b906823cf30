package cartridge

import (
	"bytes"
	"encoding/gob"
)

// encodeGob serializes a mapper's internal register state for save-states.
// Mapper state is a handful of small uint8 fields, not a hot path, so gob's
// reflection cost is irrelevant and its self-describing format means each
// mapper's Restore never has to hand-roll binary layout.
func encodeGob(v interface{}) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil
	}
	return buf.Bytes()
}

// decodeGob restores a mapper's internal register state. Returns false (and
// leaves dst untouched) if data is empty or malformed, so callers can fall
// back to power-up defaults rather than propagating a decode error.
func decodeGob(data []byte, dst interface{}) bool {
	if len(data) == 0 {
		return false
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(dst); err != nil {
		return false
	}
	return true
}
