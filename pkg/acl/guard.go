package acl

import (
	"context"
)

// Guard enforces a minimum permission level before an operation proceeds.
// Guards never mutate state.
type Guard struct {
	evaluator *Evaluator
	gateway   ResourceGateway
}

// NewGuard creates a guard over the evaluator and gateway.
func NewGuard(evaluator *Evaluator, gateway ResourceGateway) *Guard {
	return &Guard{
		evaluator: evaluator,
		gateway:   gateway,
	}
}

// Require evaluates the user's level and returns a ForbiddenError if it is
// below min. A resource that does not exist is a NotFoundError, not a
// ForbiddenError: existence is checked before the level comparison so a
// denied caller on a missing resource is not misreported.
func (g *Guard) Require(ctx context.Context, userID string, typ ResourceType, id string, min Level) error {
	if err := g.RequireExists(ctx, typ, id); err != nil {
		return err
	}

	actual, err := g.evaluator.Evaluate(ctx, userID, typ, id)
	if err != nil {
		return err
	}
	if !actual.AtLeast(min) {
		return &ForbiddenError{
			ResourceType: typ,
			ResourceID:   id,
			Required:     min,
			Actual:       actual,
		}
	}
	return nil
}

// RequireExists returns a NotFoundError if the resource does not exist,
// independent of the caller's visibility into it. Masking not-found as
// forbidden to avoid enumeration leaks is a presentation-layer decision.
func (g *Guard) RequireExists(ctx context.Context, typ ResourceType, id string) error {
	if !typ.Valid() {
		return &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "unknown resource type"}
	}
	_, err := g.gateway.Get(ctx, typ, id)
	return err
}
