package acl

import (
	"context"
	"database/sql"
)

// ResourceGateway resolves the owner, visibility, and parent reference of a
// resource, plus the document-group associations used by the shared-group
// read channel. The evaluator only ever reads through this interface; the
// surrounding system owns the resource rows and their lifecycle.
type ResourceGateway interface {
	// Get returns the resource record, or a NotFoundError if no row exists.
	Get(ctx context.Context, typ ResourceType, id string) (*Resource, error)

	// DocumentGroups returns the set of group ids a document is associated
	// with.
	DocumentGroups(ctx context.Context, documentID string) (map[string]struct{}, error)
}

// SQLGateway is the ResourceGateway over the reader's resource tables.
// Dispatch is by resource-type tag, one query per variant.
//
// Expected tables: documents(id), annotations(id, document_id, owner_id,
// visibility), comments(id, annotation_id, owner_id, visibility),
// chats(id, document_id, owner_id, visibility), groups(id, owner_id),
// document_groups(document_id, group_id).
type SQLGateway struct {
	db *sql.DB
}

// NewSQLGateway creates a gateway over an existing database handle. The
// handle's lifecycle belongs to the host application.
func NewSQLGateway(db *sql.DB) *SQLGateway {
	return &SQLGateway{db: db}
}

// Get retrieves a single resource record by type and id.
func (g *SQLGateway) Get(ctx context.Context, typ ResourceType, id string) (*Resource, error) {
	switch typ {
	case ResourceDocument:
		return g.getDocument(ctx, id)
	case ResourceAnnotation:
		return g.getAnnotation(ctx, id)
	case ResourceComment:
		return g.getComment(ctx, id)
	case ResourceChat:
		return g.getChat(ctx, id)
	case ResourceGroup:
		return g.getGroup(ctx, id)
	default:
		return nil, &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "unknown resource type"}
	}
}

// DocumentGroups returns the groups a document is associated with.
func (g *SQLGateway) DocumentGroups(ctx context.Context, documentID string) (map[string]struct{}, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT group_id FROM document_groups WHERE document_id = $1`, documentID)
	if err != nil {
		return nil, storageErr("list document groups", err)
	}
	defer rows.Close()

	groups := make(map[string]struct{})
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, storageErr("scan document group", err)
		}
		groups[groupID] = struct{}{}
	}
	return groups, storageErr("list document groups", rows.Err())
}

func (g *SQLGateway) getDocument(ctx context.Context, id string) (*Resource, error) {
	var found string
	err := g.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE id = $1`, id).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: string(ResourceDocument), ID: id}
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}
	// Documents are ownerless and carry no visibility.
	return &Resource{Type: ResourceDocument, ID: found}, nil
}

func (g *SQLGateway) getAnnotation(ctx context.Context, id string) (*Resource, error) {
	res := &Resource{Type: ResourceAnnotation, ID: id}
	var documentID string
	var visibility sql.NullString
	err := g.db.QueryRowContext(ctx,
		`SELECT document_id, owner_id, visibility FROM annotations WHERE id = $1`, id).
		Scan(&documentID, &res.OwnerID, &visibility)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: string(ResourceAnnotation), ID: id}
	}
	if err != nil {
		return nil, storageErr("get annotation", err)
	}
	if visibility.Valid {
		res.Visibility = Visibility(visibility.String)
	}
	res.Parent = &ParentRef{Type: ResourceDocument, ID: documentID}
	return res, nil
}

func (g *SQLGateway) getComment(ctx context.Context, id string) (*Resource, error) {
	res := &Resource{Type: ResourceComment, ID: id}
	var annotationID string
	var visibility sql.NullString
	err := g.db.QueryRowContext(ctx,
		`SELECT annotation_id, owner_id, visibility FROM comments WHERE id = $1`, id).
		Scan(&annotationID, &res.OwnerID, &visibility)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: string(ResourceComment), ID: id}
	}
	if err != nil {
		return nil, storageErr("get comment", err)
	}
	if visibility.Valid {
		res.Visibility = Visibility(visibility.String)
	}
	res.Parent = &ParentRef{Type: ResourceAnnotation, ID: annotationID}
	return res, nil
}

func (g *SQLGateway) getChat(ctx context.Context, id string) (*Resource, error) {
	res := &Resource{Type: ResourceChat, ID: id}
	var documentID string
	var visibility sql.NullString
	err := g.db.QueryRowContext(ctx,
		`SELECT document_id, owner_id, visibility FROM chats WHERE id = $1`, id).
		Scan(&documentID, &res.OwnerID, &visibility)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: string(ResourceChat), ID: id}
	}
	if err != nil {
		return nil, storageErr("get chat", err)
	}
	if visibility.Valid {
		res.Visibility = Visibility(visibility.String)
	}
	res.Parent = &ParentRef{Type: ResourceDocument, ID: documentID}
	return res, nil
}

func (g *SQLGateway) getGroup(ctx context.Context, id string) (*Resource, error) {
	res := &Resource{Type: ResourceGroup, ID: id}
	err := g.db.QueryRowContext(ctx,
		`SELECT owner_id FROM groups WHERE id = $1`, id).Scan(&res.OwnerID)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: string(ResourceGroup), ID: id}
	}
	if err != nil {
		return nil, storageErr("get group", err)
	}
	return res, nil
}

// visibilityTable maps a resource type to the table holding its visibility
// column. Only annotation, comment, and chat rows carry one.
func visibilityTable(typ ResourceType) (string, bool) {
	switch typ {
	case ResourceAnnotation:
		return "annotations", true
	case ResourceComment:
		return "comments", true
	case ResourceChat:
		return "chats", true
	}
	return "", false
}
