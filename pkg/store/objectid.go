package store

import (
	"encoding/hex"
	"fmt"

	blake2b "github.com/minio/blake2b-simd"
)

// ObjectIDSize is the byte length of an object id
const ObjectIDSize = 32

// ObjectID is the content address of an object (commit or blob): the
// blake2b-256 digest of its canonical encoding. The zero value is the
// nil id, used to express an absent parent, a ref that must not exist
// yet, or a ref deletion.
type ObjectID [ObjectIDSize]byte

// NilObjectID is the zero object id
var NilObjectID ObjectID

// HashObject computes the id of an encoded object
func HashObject(data []byte) ObjectID {
	return ObjectID(blake2b.Sum256(data))
}

// IsNil tells whether this is the zero id
func (id ObjectID) IsNil() bool {
	return id == NilObjectID
}

func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseObjectID decodes the hex form of an object id
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != ObjectIDSize {
		return NilObjectID, fmt.Errorf("invalid object id %q", s)
	}
	copy(id[:], b)
	return id, nil
}
