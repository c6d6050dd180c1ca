package model

import "sort"

// Update is an immutable delta to apply to an account: an optional
// replacement value per scalar field plus additions and removals for
// the metadata map. It is built once per transaction attempt through
// an UpdateBuilder, consumed by the config codec, then discarded.
type Update struct {
	name           *string
	preferredEmail *string
	status         *string
	active         *bool
	metadataPut    map[string]string
	metadataDel    []string
}

// IsEmpty reports whether the update records no change at all
func (u Update) IsEmpty() bool {
	return u.name == nil && u.preferredEmail == nil && u.status == nil &&
		u.active == nil && len(u.metadataPut) == 0 && len(u.metadataDel) == 0
}

// Name replacement, if any
func (u Update) Name() (string, bool) {
	if u.name == nil {
		return "", false
	}
	return *u.name, true
}

// PreferredEmail replacement, if any
func (u Update) PreferredEmail() (string, bool) {
	if u.preferredEmail == nil {
		return "", false
	}
	return *u.preferredEmail, true
}

// Status replacement, if any
func (u Update) Status() (string, bool) {
	if u.status == nil {
		return "", false
	}
	return *u.status, true
}

// Active replacement, if any
func (u Update) Active() (bool, bool) {
	if u.active == nil {
		return false, false
	}
	return *u.active, true
}

// MetadataKeys returns every metadata key the update touches,
// additions and removals alike, so callers can validate them before
// the delta is applied.
func (u Update) MetadataKeys() []string {
	keys := make([]string, 0, len(u.metadataPut)+len(u.metadataDel))
	keys = append(keys, sortedKeys(u.metadataPut)...)
	keys = append(keys, u.metadataDel...)
	return keys
}

// ApplyTo merges the delta over an account state in place.
// Metadata removals win over additions of the same key, matching the
// order in which the codec serializes.
func (u Update) ApplyTo(a *AccountDescriptor) {
	if u.name != nil {
		a.Name = *u.name
	}
	if u.preferredEmail != nil {
		a.PreferredEmail = *u.preferredEmail
	}
	if u.status != nil {
		a.Status = *u.status
	}
	if u.active != nil {
		a.Active = *u.active
	}
	if len(u.metadataPut) > 0 && a.Metadata == nil {
		a.Metadata = make(map[string]string, len(u.metadataPut))
	}
	for _, k := range sortedKeys(u.metadataPut) {
		a.Metadata[k] = u.metadataPut[k]
	}
	for _, k := range u.metadataDel {
		delete(a.Metadata, k)
	}
}

// UpdateBuilder accumulates field-level changes for one account
// mutation. Mutation callbacks receive a fresh builder and a read-only
// view of the current account; they record changes here and must not
// modify the view.
type UpdateBuilder struct {
	u Update
}

// NewUpdateBuilder builds an empty update builder
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{}
}

// SetName replaces the display name
func (b *UpdateBuilder) SetName(name string) *UpdateBuilder {
	b.u.name = &name
	return b
}

// SetPreferredEmail replaces the preferred email address
func (b *UpdateBuilder) SetPreferredEmail(email string) *UpdateBuilder {
	b.u.preferredEmail = &email
	return b
}

// SetStatus replaces the status line
func (b *UpdateBuilder) SetStatus(status string) *UpdateBuilder {
	b.u.status = &status
	return b
}

// SetActive replaces the active flag
func (b *UpdateBuilder) SetActive(active bool) *UpdateBuilder {
	b.u.active = &active
	return b
}

// PutMetadata records a metadata addition or replacement
func (b *UpdateBuilder) PutMetadata(key, value string) *UpdateBuilder {
	if b.u.metadataPut == nil {
		b.u.metadataPut = make(map[string]string)
	}
	b.u.metadataPut[key] = value
	return b
}

// DeleteMetadata records a metadata removal
func (b *UpdateBuilder) DeleteMetadata(key string) *UpdateBuilder {
	b.u.metadataDel = append(b.u.metadataDel, key)
	return b
}

// Build returns the accumulated delta
func (b *UpdateBuilder) Build() Update {
	return b.u
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
