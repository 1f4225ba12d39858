// Package acl resolves effective permission levels for the document reader's
// access-controlled resources: documents, annotations, comments, chats, and
// groups.
//
// # Overview
//
// A caller asks the Service (or the Guard directly) whether a user may act on
// a resource at a minimum level. The Evaluator combines ownership, the
// per-resource visibility flag, explicit grants to users, groups, the public,
// or share links, group membership, and inheritance through the resource
// hierarchy (comment -> annotation -> document, chat -> document) into a
// single level on the lattice none < read < write < admin.
//
// # Precedence
//
// Evaluation applies a fixed precedence order; the first decisive rule wins:
//
//  1. Group resources: owner -> write, member -> read, otherwise none.
//     Groups never consult visibility or the grant table.
//  2. Document floor: every user holds at least read on every document.
//     The floor applies to the document itself only; it does not travel
//     down to the annotations, comments, or chats beneath it.
//  3. Ownership: the resource's creator holds write, regardless of
//     visibility or grants.
//  4. Private override: a private resource is none for every non-owner.
//     This suppresses grants and inheritance; it is not merely "no grant".
//  5. Public override: a public resource is at least read, with explicit
//     grants still able to raise the level.
//  6. Explicit grants: the maximum matching level across (user, id),
//     (group, g) for the user's groups, public, and share_link grants.
//  7. Shared-group channel: a non-owner who shares a group with the owner
//     gains read when the parent document is associated with that group.
//  8. Inheritance: a parent on which the user holds a level through
//     ownership, visibility, or grants confers at most read on the child.
//     Write on a document does not imply write on its annotations, and a
//     user with no relationship to the parent inherits nothing.
//
// # Components
//
//	Evaluator            - the pure decision function over injected sources
//	Guard                - Require / RequireExists enforcement
//	GrantStore           - composite-keyed, idempotent grant CRUD
//	GroupMembershipIndex - group ownership and membership resolution
//	SQLGateway           - resource owner/visibility/parent lookups
//	Service              - write-guarded grant CRUD and atomic MakePrivate
//
// Errors follow a small taxonomy: BadRequestError for invalid enum values,
// NotFoundError for absent rows, ForbiddenError for insufficient levels
// (carrying both the required and the computed level), and StorageError for
// backing-store failures, which always propagate and are never folded into a
// "none" decision.
//
// The package performs no transport mapping and no logging on the decision
// path; hosts translate the error taxonomy to HTTP codes or UI states at
// their own layer.
package acl
