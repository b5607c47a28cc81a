package ir_test

import (
	"errors"
	"testing"

	"github.com/xcono/pgrest-translate/ir"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	err := ir.NewError(ir.ErrUnknownRelation, nil, "relation %q not found", "ghosts")
	target := &ir.Error{Kind: ir.ErrUnknownRelation}

	if !errors.Is(err, target) {
		t.Fatalf("expected errors.Is to match on Kind alone")
	}

	other := &ir.Error{Kind: ir.ErrMissingFromClause}
	if errors.Is(err, other) {
		t.Fatalf("expected errors.Is to reject a different Kind")
	}
}

func TestErrorMessageIncludesKind(t *testing.T) {
	err := ir.NewError(ir.ErrInvalidLimit, nil, "must be non-negative, got %d", -1)
	want := "InvalidLimit: must be non-negative, got -1"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
