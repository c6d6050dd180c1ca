package store

import (
	"bytes"
	"fmt"
)

// EncodeCommit renders the canonical byte form of a commit, from which
// its content address is derived. Backends must all use this encoding
// so that identical specs hash to identical ids regardless of backend.
func EncodeCommit(spec CommitSpec, blobID ObjectID) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "parent %s\n", spec.Parent)
	fmt.Fprintf(&b, "blob %s\n", blobID)
	fmt.Fprintf(&b, "author %s\n", encodeSignature(spec.Author))
	fmt.Fprintf(&b, "committer %s\n", encodeSignature(spec.Committer))
	b.WriteString("\n")
	b.WriteString(spec.Message)
	return b.Bytes()
}

// CommitID computes the content address of a commit spec, given the id
// of its (possibly nil) blob.
func CommitID(spec CommitSpec, blobID ObjectID) ObjectID {
	return HashObject(EncodeCommit(spec, blobID))
}

// BlobID computes the content address of blob bytes. A nil blob has
// the nil id.
func BlobID(blob []byte) ObjectID {
	if blob == nil {
		return NilObjectID
	}
	return HashObject(blob)
}

// encodeSignature renders a signature with second resolution and the
// zone offset, so the encoding survives storage round trips.
func encodeSignature(s Signature) string {
	_, offset := s.When.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s <%s> %d %s%02d%02d",
		s.Name, s.Email, s.When.Unix(), sign, offset/3600, (offset%3600)/60)
}
