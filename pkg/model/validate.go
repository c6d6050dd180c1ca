package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidateMetadataKey checks that a metadata key survives the config
// encoding. Keys become entry names in the serialized blob, so the
// characters the format reserves for structure cannot appear: a key
// holding a line break or a delimiter would produce a blob that does
// not parse back, after the commit already succeeded.
func ValidateMetadataKey(key string) error {
	if key == "" {
		return fmt.Errorf("metadata key must not be empty")
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("invalid metadata key %q: leading or trailing whitespace", key)
	}
	if strings.ContainsAny(key, "\n\r=:") {
		return fmt.Errorf("invalid metadata key %q: reserved character", key)
	}
	switch key[0] {
	case '[', ';', '#':
		return fmt.Errorf("invalid metadata key %q: reserved leading character", key)
	}
	return nil
}

// ValidateEmail performs a syntactic check of a preferred email
// address. It is invoked by the config codec before anything is
// written, so invalid addresses never reach storage.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email address %q: %v", email, err)
	}
	// reject display names and angle-bracket forms, only the bare
	// address is stored
	if addr.Address != email || strings.ContainsAny(email, "<> ") {
		return fmt.Errorf("invalid email address %q: expect a bare address", email)
	}
	return nil
}
