package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateBuilder(t *testing.T) {
	b := NewUpdateBuilder().
		SetName("Ann").
		SetStatus("ooo").
		SetActive(false).
		PutMetadata("team", "storage").
		PutMetadata("desk", "A4").
		DeleteMetadata("desk")
	u := b.Build()

	assert.False(t, u.IsEmpty())
	name, ok := u.Name()
	assert.True(t, ok)
	assert.Equal(t, "Ann", name)
	_, ok = u.PreferredEmail()
	assert.False(t, ok)

	a := NewAccountDescriptor(7)
	a.Metadata = map[string]string{"desk": "B1"}
	u.ApplyTo(a)
	assert.Equal(t, "Ann", a.Name)
	assert.Equal(t, "ooo", a.Status)
	assert.False(t, a.Active)
	// removal wins over the addition of the same key
	assert.Equal(t, map[string]string{"team": "storage"}, a.Metadata)
}

func TestUpdateEmpty(t *testing.T) {
	u := NewUpdateBuilder().Build()
	assert.True(t, u.IsEmpty())

	a := NewAccountDescriptor(7)
	a.Name = "Bob"
	u.ApplyTo(a)
	assert.Equal(t, "Bob", a.Name)
	assert.True(t, a.Active)
}

func TestUpdateLastWriterWins(t *testing.T) {
	b := NewUpdateBuilder()
	b.SetName("first")
	b.SetName("second")
	a := NewAccountDescriptor(1)
	b.Build().ApplyTo(a)
	assert.Equal(t, "second", a.Name)
}
