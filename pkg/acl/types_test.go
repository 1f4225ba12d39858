package acl

import (
	"testing"
)

func TestLevelOrdering(t *testing.T) {
	ordered := []Level{LevelNone, LevelRead, LevelWrite, LevelAdmin}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i].AtLeast(ordered[i-1]) {
			t.Errorf("Expected %s to be at least %s", ordered[i], ordered[i-1])
		}
		if ordered[i-1].AtLeast(ordered[i]) {
			t.Errorf("Expected %s not to be at least %s", ordered[i-1], ordered[i])
		}
	}
	if !LevelAdmin.AtLeast(LevelAdmin) {
		t.Errorf("Expected a level to satisfy itself")
	}
}

func TestParseLevelRoundTrip(t *testing.T) {
	for _, l := range []Level{LevelNone, LevelRead, LevelWrite, LevelAdmin} {
		parsed, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", l.String(), err)
		}
		if parsed != l {
			t.Errorf("Expected %v to round-trip, got %v", l, parsed)
		}
	}

	if _, err := ParseLevel("superuser"); !IsBadRequest(err) {
		t.Errorf("Expected BadRequestError for unknown level, got %v", err)
	}
}

func TestResourceTypeValidity(t *testing.T) {
	for _, typ := range []ResourceType{ResourceDocument, ResourceAnnotation, ResourceComment, ResourceChat, ResourceGroup} {
		if !typ.Valid() {
			t.Errorf("Expected %s to be valid", typ)
		}
	}
	if ResourceType("folder").Valid() {
		t.Errorf("Expected unknown type to be invalid")
	}

	for _, typ := range []ResourceType{ResourceAnnotation, ResourceComment, ResourceChat} {
		if !typ.HasVisibility() {
			t.Errorf("Expected %s to carry a visibility flag", typ)
		}
	}
	for _, typ := range []ResourceType{ResourceDocument, ResourceGroup} {
		if typ.HasVisibility() {
			t.Errorf("Expected %s to carry no visibility flag", typ)
		}
	}
}

func TestGrantValidate(t *testing.T) {
	valid := Grant{
		ResourceType:  ResourceAnnotation,
		ResourceID:    "ann1",
		PrincipalType: PrincipalUser,
		PrincipalID:   "bob",
		Level:         LevelRead,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid grant to pass, got %v", err)
	}

	public := Grant{
		ResourceType:  ResourceAnnotation,
		ResourceID:    "ann1",
		PrincipalType: PrincipalPublic,
		Level:         LevelRead,
	}
	if err := public.Validate(); err != nil {
		t.Errorf("Expected public grant without principal id to pass, got %v", err)
	}

	admin := valid
	admin.Level = LevelAdmin
	if err := admin.Validate(); err != nil {
		t.Errorf("Expected admin grant to pass, got %v", err)
	}
}
