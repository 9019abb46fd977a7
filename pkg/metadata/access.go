package metadata

import (
	"fmt"
	"strings"
)

// Rights is a bitmask of the operations allowed on an entity.
type Rights uint8

const (
	RightView Rights = 1 << iota
	RightEdit
	RightDelete

	RightNone Rights = 0
	RightAll         = RightView | RightEdit | RightDelete
)

// Has reports whether every bit of want is granted.
func (r Rights) Has(want Rights) bool {
	return r&want == want
}

func (r Rights) String() string {
	if r == RightNone {
		return "none"
	}

	var parts []string
	if r.Has(RightView) {
		parts = append(parts, "view")
	}
	if r.Has(RightEdit) {
		parts = append(parts, "edit")
	}
	if r.Has(RightDelete) {
		parts = append(parts, "delete")
	}
	return strings.Join(parts, ",")
}

// ParseRights parses a comma separated list such as "view,edit". "all" and
// "none" are accepted.
func ParseRights(s string) (Rights, error) {
	var rights Rights
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "view":
			rights |= RightView
		case "edit":
			rights |= RightEdit
		case "delete":
			rights |= RightDelete
		case "all":
			rights |= RightAll
		case "none", "":
		default:
			return RightNone, fmt.Errorf("unknown right %q", part)
		}
	}
	return rights, nil
}

// EveryoneKey is the access rule key matching every identity without a
// rule of its own.
const EveryoneKey = "*"

// Access maps a username (or EveryoneKey) to the rights granted on one
// entity. Rules are attached to a single entity and are not inherited by
// its children.
type Access map[string]Rights

// Effective returns the rights identity holds under these rules.
//
// Evaluation order:
//  1. Admin identities hold every right
//  2. A rule for the username applies as is
//  3. Otherwise the EveryoneKey rule applies
//  4. Without any matching rule every right is granted
func (a Access) Effective(identity *Identity) Rights {
	if identity != nil && identity.Admin {
		return RightAll
	}
	if rights, ok := a[identity.Name()]; ok {
		return rights
	}
	if rights, ok := a[EveryoneKey]; ok {
		return rights
	}
	return RightAll
}

// Allows reports whether identity holds want on an entity carrying these rules.
func (a Access) Allows(identity *Identity, want Rights) bool {
	return a.Effective(identity).Has(want)
}
