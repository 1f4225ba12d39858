package acl

import (
	"context"
)

// maxEvalDepth bounds recursion up the parent chain. The current hierarchy
// is at most depth 2 (comment -> annotation -> document); the bound keeps a
// future cyclic or extended parentRef from recursing forever.
const maxEvalDepth = 4

// Evaluator computes the effective permission level of a user on a resource
// by combining ownership, visibility, explicit grants, group membership, and
// inheritance through the resource hierarchy. All operations are read-only
// composed queries; the backing store is the consistency boundary.
type Evaluator struct {
	gateway ResourceGateway
	grants  GrantSource
	groups  MembershipSource
}

// NewEvaluator creates an evaluator over the injected collaborators.
func NewEvaluator(gateway ResourceGateway, grants GrantSource, groups MembershipSource) *Evaluator {
	return &Evaluator{
		gateway: gateway,
		grants:  grants,
		groups:  groups,
	}
}

// Evaluate resolves the user's effective level on the resource. A missing
// resource resolves to LevelNone, never an error: callers distinguish
// forbidden from not-found with a separate existence check. Storage
// failures propagate as StorageError.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, typ ResourceType, id string) (Level, error) {
	if !typ.Valid() {
		return LevelNone, &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "unknown resource type"}
	}

	state := newEvalState()
	return e.resolve(ctx, state, userID, typ, id, 0)
}

// resolve applies the precedence order; the first decisive rule wins.
func (e *Evaluator) resolve(ctx context.Context, state *evalState, userID string, typ ResourceType, id string, depth int) (Level, error) {
	if depth >= maxEvalDepth {
		return LevelNone, nil
	}

	// Groups never consult visibility or the grant table: owner gets write,
	// member gets read, everyone else gets none.
	if typ == ResourceGroup {
		return e.resolveGroup(ctx, userID, id)
	}

	res, err := state.resource(ctx, e.gateway, typ, id)
	if err != nil {
		return LevelNone, err
	}
	if res == nil {
		return LevelNone, nil
	}

	// Documents are ownerless and shared by default: read for everyone,
	// with grants still able to raise the level above the floor. The floor
	// belongs to the document itself and never travels down the hierarchy:
	// depth > 0 means we are resolving a parent for inheritance, where only
	// ownership, visibility, and grants count.
	floor := LevelNone
	if typ == ResourceDocument && depth == 0 {
		floor = LevelRead
	}

	// Ownership is checked before visibility and grants so a creator can
	// never be locked out of their own content.
	if res.OwnerID != "" && res.OwnerID == userID {
		return LevelWrite, nil
	}

	// A private flag is an override, not merely an absent grant: it
	// suppresses grants and inheritance for everyone but the owner.
	if res.Visibility == VisibilityPrivate {
		return LevelNone, nil
	}

	if res.Visibility == VisibilityPublic {
		floor = maxLevel(floor, LevelRead)
	}

	best, err := e.bestGrant(ctx, state, userID, typ, id)
	if err != nil {
		return LevelNone, err
	}
	if best > LevelNone {
		return maxLevel(floor, best), nil
	}

	// Shared-group channel: a non-owner who co-belongs with the owner to a
	// group that the parent document is associated with gains read. This
	// requires the document association, not merely shared membership.
	if res.OwnerID != "" && typ.HasVisibility() {
		shared, err := e.sharedGroupRead(ctx, state, userID, res, depth)
		if err != nil {
			return LevelNone, err
		}
		if shared {
			return maxLevel(floor, LevelRead), nil
		}
	}

	// Inheritance from the parent yields at most read, and only from a real
	// relationship with the parent (ownership, visibility, or a grant).
	// Merely existing under a readable document confers nothing: the
	// document floor is excluded above, so an unrelated user stays at none.
	if res.Parent != nil {
		parentLevel, err := e.resolve(ctx, state, userID, res.Parent.Type, res.Parent.ID, depth+1)
		if err != nil {
			return LevelNone, err
		}
		if parentLevel > LevelNone {
			return maxLevel(floor, LevelRead), nil
		}
	}

	return floor, nil
}

func (e *Evaluator) resolveGroup(ctx context.Context, userID, groupID string) (Level, error) {
	owner, err := e.groups.IsOwner(ctx, userID, groupID)
	if err != nil {
		return LevelNone, err
	}
	if owner {
		return LevelWrite, nil
	}

	member, err := e.groups.IsMember(ctx, userID, groupID)
	if err != nil {
		return LevelNone, err
	}
	if member {
		return LevelRead, nil
	}
	return LevelNone, nil
}

// bestGrant returns the maximum level across grants matching the user
// directly, any of the user's groups, or the public/share_link principals.
func (e *Evaluator) bestGrant(ctx context.Context, state *evalState, userID string, typ ResourceType, id string) (Level, error) {
	grants, err := e.grants.GrantsForResource(ctx, typ, id)
	if err != nil {
		return LevelNone, err
	}
	if len(grants) == 0 {
		return LevelNone, nil
	}

	userGroups, err := state.groupsFor(ctx, e.groups, userID)
	if err != nil {
		return LevelNone, err
	}

	best := LevelNone
	for _, grant := range grants {
		switch grant.PrincipalType {
		case PrincipalUser:
			if grant.PrincipalID == userID {
				best = maxLevel(best, grant.Level)
			}
		case PrincipalGroup:
			if _, ok := userGroups[grant.PrincipalID]; ok {
				best = maxLevel(best, grant.Level)
			}
		case PrincipalPublic, PrincipalShareLink:
			// Applies to every user without per-user state.
			best = maxLevel(best, grant.Level)
		}
	}
	return best, nil
}

// sharedGroupRead checks the document-association channel: the user and the
// resource owner must share a group, and the resource's parent document must
// be associated with that shared group.
func (e *Evaluator) sharedGroupRead(ctx context.Context, state *evalState, userID string, res *Resource, depth int) (bool, error) {
	if userID == res.OwnerID {
		return false, nil
	}

	docID, err := e.parentDocumentID(ctx, state, res, depth)
	if err != nil || docID == "" {
		return false, err
	}

	docGroups, err := state.documentGroups(ctx, e.gateway, docID)
	if err != nil {
		return false, err
	}
	if len(docGroups) == 0 {
		return false, nil
	}

	userGroups, err := state.groupsFor(ctx, e.groups, userID)
	if err != nil {
		return false, err
	}
	ownerGroups, err := state.groupsFor(ctx, e.groups, res.OwnerID)
	if err != nil {
		return false, err
	}

	for groupID := range docGroups {
		if _, inUser := userGroups[groupID]; !inUser {
			continue
		}
		if _, inOwner := ownerGroups[groupID]; inOwner {
			return true, nil
		}
	}
	return false, nil
}

// parentDocumentID walks the parent chain until it reaches a document,
// bounded by the same recursion limit as resolve.
func (e *Evaluator) parentDocumentID(ctx context.Context, state *evalState, res *Resource, depth int) (string, error) {
	ref := res.Parent
	for step := depth; ref != nil && step < maxEvalDepth; step++ {
		if ref.Type == ResourceDocument {
			return ref.ID, nil
		}
		parent, err := state.resource(ctx, e.gateway, ref.Type, ref.ID)
		if err != nil {
			return "", err
		}
		if parent == nil {
			return "", nil
		}
		ref = parent.Parent
	}
	return "", nil
}

// evalState memoizes resource, group-set, and document-group lookups within
// a single Evaluate call. Nothing persists across calls: grants and
// visibility can change between requests, and a make-private must take
// effect immediately for subsequent checks.
type evalState struct {
	resources map[string]*Resource
	groups    map[string]map[string]struct{}
	docGroups map[string]map[string]struct{}
}

func newEvalState() *evalState {
	return &evalState{
		resources: make(map[string]*Resource),
		groups:    make(map[string]map[string]struct{}),
		docGroups: make(map[string]map[string]struct{}),
	}
}

// resource returns the memoized record, or nil for a missing resource.
func (s *evalState) resource(ctx context.Context, gateway ResourceGateway, typ ResourceType, id string) (*Resource, error) {
	key := string(typ) + "/" + id
	if res, ok := s.resources[key]; ok {
		return res, nil
	}

	res, err := gateway.Get(ctx, typ, id)
	if err != nil {
		if IsNotFound(err) {
			s.resources[key] = nil
			return nil, nil
		}
		return nil, err
	}
	s.resources[key] = res
	return res, nil
}

func (s *evalState) groupsFor(ctx context.Context, src MembershipSource, userID string) (map[string]struct{}, error) {
	if groups, ok := s.groups[userID]; ok {
		return groups, nil
	}
	groups, err := src.GroupsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.groups[userID] = groups
	return groups, nil
}

func (s *evalState) documentGroups(ctx context.Context, gateway ResourceGateway, documentID string) (map[string]struct{}, error) {
	if groups, ok := s.docGroups[documentID]; ok {
		return groups, nil
	}
	groups, err := gateway.DocumentGroups(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.docGroups[documentID] = groups
	return groups, nil
}
