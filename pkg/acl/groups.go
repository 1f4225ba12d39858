package acl

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"
)

// MembershipSource is what the evaluator needs from group membership.
type MembershipSource interface {
	// GroupsFor returns owned groups union member-of groups, deduplicated.
	GroupsFor(ctx context.Context, userID string) (map[string]struct{}, error)

	// IsOwner reports whether userID is the group's owner.
	IsOwner(ctx context.Context, userID, groupID string) (bool, error)

	// IsMember reports whether userID has a membership row in the group.
	IsMember(ctx context.Context, userID, groupID string) (bool, error)
}

// GroupMembershipIndex resolves group ownership and membership from the
// groups and group_members tables. Group owners implicitly hold write on
// the group; members hold read.
type GroupMembershipIndex struct {
	db *sql.DB
}

// NewGroupMembershipIndex creates an index over an existing database handle.
func NewGroupMembershipIndex(db *sql.DB) *GroupMembershipIndex {
	return &GroupMembershipIndex{db: db}
}

// GroupsFor returns the set of group ids the user owns or belongs to.
func (idx *GroupMembershipIndex) GroupsFor(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id FROM groups WHERE owner_id = $1
		UNION
		SELECT group_id FROM group_members WHERE user_id = $2
	`, userID, userID)
	if err != nil {
		return nil, storageErr("list groups for user", err)
	}
	defer rows.Close()

	groups := make(map[string]struct{})
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, storageErr("scan group id", err)
		}
		groups[groupID] = struct{}{}
	}
	return groups, storageErr("list groups for user", rows.Err())
}

// IsOwner reports whether the user owns the group.
func (idx *GroupMembershipIndex) IsOwner(ctx context.Context, userID, groupID string) (bool, error) {
	var ownerID string
	err := idx.db.QueryRowContext(ctx,
		`SELECT owner_id FROM groups WHERE id = $1`, groupID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storageErr("get group owner", err)
	}
	return ownerID == userID, nil
}

// IsMember reports whether the user has a membership row in the group.
func (idx *GroupMembershipIndex) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	var one int
	err := idx.db.QueryRowContext(ctx,
		`SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storageErr("get group membership", err)
	}
	return true, nil
}

// SharedGroups returns the groups both users own or belong to. The two
// group-set lookups are independent and fetched concurrently.
func (idx *GroupMembershipIndex) SharedGroups(ctx context.Context, userA, userB string) (map[string]struct{}, error) {
	var groupsA, groupsB map[string]struct{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groupsA, err = idx.GroupsFor(gctx, userA)
		return err
	})
	g.Go(func() error {
		var err error
		groupsB, err = idx.GroupsFor(gctx, userB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shared := make(map[string]struct{})
	for id := range groupsA {
		if _, ok := groupsB[id]; ok {
			shared[id] = struct{}{}
		}
	}
	return shared, nil
}

// UsersShareGroup reports whether two users co-belong to at least one group.
func (idx *GroupMembershipIndex) UsersShareGroup(ctx context.Context, userA, userB string) (bool, error) {
	shared, err := idx.SharedGroups(ctx, userA, userB)
	if err != nil {
		return false, err
	}
	return len(shared) > 0, nil
}
