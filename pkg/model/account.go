package model

import (
	"fmt"
	"strconv"
	"time"
)

// AccountID is the stable numeric identifier of an account.
//
// It is assigned once and never changes; every other account property
// is mutable.
type AccountID int64

// ParseAccountID parses a decimal account id
func ParseAccountID(s string) (AccountID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid account id %q", s)
	}
	return AccountID(v), nil
}

func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// AccountDescriptor is the materialized state of an account at some
// revision of its branch.
type AccountDescriptor struct {
	ID             AccountID         `json:"id" yaml:"id"`
	Name           string            `json:"name,omitempty" yaml:"name,omitempty"`
	PreferredEmail string            `json:"preferredEmail,omitempty" yaml:"preferredEmail,omitempty"`
	Active         bool              `json:"active" yaml:"active"`
	Status         string            `json:"status,omitempty" yaml:"status,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	RegisteredAt   time.Time         `json:"registeredAt,omitempty" yaml:"registeredAt,omitempty"`
	_              struct{}
}

// NewAccountDescriptor builds the default state of a fresh account.
// Accounts are active unless explicitly deactivated.
func NewAccountDescriptor(id AccountID) *AccountDescriptor {
	return &AccountDescriptor{
		ID:     id,
		Active: true,
	}
}

// Clone returns a deep copy, so that callers may hand out read-only
// views without sharing the metadata map.
func (a *AccountDescriptor) Clone() *AccountDescriptor {
	c := *a
	if a.Metadata != nil {
		c.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
