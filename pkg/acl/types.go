package acl

import (
	"time"
)

// ResourceType identifies the kind of access-controlled resource.
type ResourceType string

const (
	ResourceDocument   ResourceType = "document"
	ResourceAnnotation ResourceType = "annotation"
	ResourceComment    ResourceType = "comment"
	ResourceChat       ResourceType = "chat"
	ResourceGroup      ResourceType = "group"
)

// Valid reports whether the resource type is one of the known kinds.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceDocument, ResourceAnnotation, ResourceComment, ResourceChat, ResourceGroup:
		return true
	}
	return false
}

// HasVisibility reports whether resources of this type carry a visibility
// flag. Documents are always at least readable and groups are governed
// entirely by ownership and membership, so neither carries one.
func (t ResourceType) HasVisibility() bool {
	switch t {
	case ResourceAnnotation, ResourceComment, ResourceChat:
		return true
	}
	return false
}

// PrincipalType identifies what kind of entity a grant is issued to.
type PrincipalType string

const (
	PrincipalUser      PrincipalType = "user"
	PrincipalGroup     PrincipalType = "group"
	PrincipalPublic    PrincipalType = "public"
	PrincipalShareLink PrincipalType = "share_link"
)

// Valid reports whether the principal type is one of the known kinds.
func (t PrincipalType) Valid() bool {
	switch t {
	case PrincipalUser, PrincipalGroup, PrincipalPublic, PrincipalShareLink:
		return true
	}
	return false
}

// Level is a permission level in the totally ordered lattice
// none < read < write < admin.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelAdmin
)

var levelNames = map[Level]string{
	LevelNone:  "none",
	LevelRead:  "read",
	LevelWrite: "write",
	LevelAdmin: "admin",
}

var levelValues = map[string]Level{
	"none":  LevelNone,
	"read":  LevelRead,
	"write": LevelWrite,
	"admin": LevelAdmin,
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "none"
}

// Valid reports whether the level is a member of the lattice.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// AtLeast reports whether l satisfies the required minimum level.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}

// ParseLevel converts the stored string form back into a Level.
func ParseLevel(s string) (Level, error) {
	if l, ok := levelValues[s]; ok {
		return l, nil
	}
	return LevelNone, &BadRequestError{Field: "level", Value: s, Reason: "unknown permission level"}
}

// maxLevel returns the higher of two levels.
func maxLevel(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}

// Visibility is the per-resource override flag carried by annotations,
// comments, and chats. The zero value means the resource has no explicit
// visibility set.
type Visibility string

const (
	VisibilityUnset   Visibility = ""
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ParentRef points at the next resource up the hierarchy:
// comment -> annotation, annotation -> document, chat -> document.
type ParentRef struct {
	Type ResourceType `json:"type"`
	ID   string       `json:"id"`
}

// Resource is the shape of a resource as seen by the evaluator. Documents
// have no owner and no visibility; groups have an owner but no visibility
// or parent.
type Resource struct {
	Type       ResourceType `json:"type"`
	ID         string       `json:"id"`
	OwnerID    string       `json:"owner_id,omitempty"`
	Visibility Visibility   `json:"visibility,omitempty"`
	Parent     *ParentRef   `json:"parent,omitempty"`
}

// Grant is an explicit ACL row binding a principal to a permission level on
// a resource. The (resource type, resource id, principal type, principal id)
// tuple is the primary key: re-granting overwrites the level, never appends.
type Grant struct {
	ResourceType  ResourceType  `json:"resource_type"`
	ResourceID    string        `json:"resource_id"`
	PrincipalType PrincipalType `json:"principal_type"`
	PrincipalID   string        `json:"principal_id,omitempty"`
	Level         Level         `json:"level"`
	GrantedBy     *string       `json:"granted_by,omitempty"`
	GrantedAt     time.Time     `json:"granted_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
}

// Validate checks a grant before it is written. Public principals carry no
// per-principal id; user, group and share_link principals require one.
func (g *Grant) Validate() error {
	if !g.ResourceType.Valid() {
		return &BadRequestError{Field: "resource_type", Value: string(g.ResourceType), Reason: "unknown resource type"}
	}
	if g.ResourceID == "" {
		return &BadRequestError{Field: "resource_id", Reason: "resource id is required"}
	}
	if !g.PrincipalType.Valid() {
		return &BadRequestError{Field: "principal_type", Value: string(g.PrincipalType), Reason: "unknown principal type"}
	}
	if g.PrincipalType == PrincipalPublic {
		if g.PrincipalID != "" {
			return &BadRequestError{Field: "principal_id", Value: g.PrincipalID, Reason: "public grants carry no principal id"}
		}
	} else if g.PrincipalID == "" {
		return &BadRequestError{Field: "principal_id", Reason: "principal id is required"}
	}
	if !g.Level.Valid() || g.Level == LevelNone {
		return &BadRequestError{Field: "level", Value: g.Level.String(), Reason: "grant level must be read, write, or admin"}
	}
	return nil
}
