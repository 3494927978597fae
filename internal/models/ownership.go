package models

import "github.com/google/uuid"

// Owned is implemented by records that a single user is allowed to mutate.
type Owned interface {
	OwnerRef() uuid.UUID
}

// OwnedBy reports whether actor is the owner of o. The nil UUID never owns anything.
func OwnedBy(o Owned, actor uuid.UUID) bool {
	if o == nil || actor == uuid.Nil {
		return false
	}
	return o.OwnerRef() == actor
}

func (v Video) OwnerRef() uuid.UUID   { return v.OwnerID }
func (c Comment) OwnerRef() uuid.UUID { return c.OwnerID }
func (t Tweet) OwnerRef() uuid.UUID   { return t.OwnerID }
