package accountcfg

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/metabranch/metabranch/pkg/model"
	ini "gopkg.in/ini.v1"
)

// config blob layout: an [account] section with the scalar properties
// and an optional [metadata] section with the free-form string map
const (
	accountSection  = "account"
	metadataSection = "metadata"

	keyName   = "name"
	keyEmail  = "preferredEmail"
	keyStatus = "status"
	keyActive = "active"
)

// serialize renders an account's mutable properties as a config blob.
//
// The output is deterministic: keys are written in a fixed order and
// metadata keys are sorted, so two logically identical states always
// produce byte-identical blobs and a no-op update is detected by a
// plain byte comparison. Default values are omitted; an account with
// nothing but defaults serializes to a nil blob, which the commit
// layer turns into a commit without a config file.
func serialize(a *model.AccountDescriptor) ([]byte, error) {
	f := ini.Empty()
	empty := true

	sec, err := f.NewSection(accountSection)
	if err != nil {
		return nil, err
	}
	for _, kv := range []struct{ key, value string }{
		{keyName, a.Name},
		{keyEmail, a.PreferredEmail},
		{keyStatus, a.Status},
	} {
		if kv.value == "" {
			continue
		}
		if _, err = sec.NewKey(kv.key, kv.value); err != nil {
			return nil, err
		}
		empty = false
	}
	if !a.Active {
		if _, err = sec.NewKey(keyActive, "false"); err != nil {
			return nil, err
		}
		empty = false
	}

	if len(a.Metadata) > 0 {
		meta, e := f.NewSection(metadataSection)
		if e != nil {
			return nil, e
		}
		keys := make([]string, 0, len(a.Metadata))
		for k := range a.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err = meta.NewKey(k, a.Metadata[k]); err != nil {
				return nil, err
			}
		}
		empty = false
	}

	if empty {
		return nil, nil
	}
	var buf bytes.Buffer
	if _, err = f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parse decodes a config blob over default account state. A nil blob
// yields the defaults.
func parse(id model.AccountID, blob []byte) (*model.AccountDescriptor, error) {
	a := model.NewAccountDescriptor(id)
	if blob == nil {
		return a, nil
	}
	f, err := ini.Load(blob)
	if err != nil {
		return nil, err
	}

	sec := f.Section(accountSection)
	a.Name = sec.Key(keyName).String()
	a.PreferredEmail = sec.Key(keyEmail).String()
	a.Status = sec.Key(keyStatus).String()
	if sec.HasKey(keyActive) {
		active, e := sec.Key(keyActive).Bool()
		if e != nil {
			return nil, fmt.Errorf("key %q: %v", keyActive, e)
		}
		a.Active = active
	}

	if meta, e := f.GetSection(metadataSection); e == nil {
		for _, k := range meta.Keys() {
			if a.Metadata == nil {
				a.Metadata = make(map[string]string, len(meta.Keys()))
			}
			a.Metadata[k.Name()] = k.Value()
		}
	}
	return a, nil
}
