package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation_WithPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name: "unique violation matching constraint",
			err: &pq.Error{
				Code:       "23505",
				Constraint: "members_nickname_key",
			},
			constraint: "members_nickname_key",
			want:       true,
		},
		{
			name: "unique violation any constraint",
			err: &pq.Error{
				Code:       "23505",
				Constraint: "room_memberships_pkey",
			},
			constraint: "",
			want:       true,
		},
		{
			name: "unique violation different constraint",
			err: &pq.Error{
				Code:       "23505",
				Constraint: "room_memberships_pkey",
			},
			constraint: "members_nickname_key",
			want:       false,
		},
		{
			name: "different error code",
			err: &pq.Error{
				Code:       "23503", // foreign key violation
				Constraint: "members_nickname_key",
			},
			constraint: "members_nickname_key",
			want:       false,
		},
		{
			name:       "not pq error",
			err:        errors.New("some other error"),
			constraint: "members_nickname_key",
			want:       false,
		},
		{
			name:       "nil error",
			err:        nil,
			constraint: "members_nickname_key",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUniqueViolation(tt.err, tt.constraint)
			if got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation_WithWrappedError(t *testing.T) {
	baseErr := &pq.Error{
		Code:       "23505",
		Constraint: "members_nickname_key",
	}

	// String concatenation loses the type
	flattened := errors.New("failed to insert: " + baseErr.Error())
	if IsUniqueViolation(flattened, "members_nickname_key") {
		t.Error("Expected false for string-concatenated error, but got true")
	}

	wrapped := fmt.Errorf("failed to insert: %w", baseErr)
	if !IsUniqueViolation(wrapped, "members_nickname_key") {
		t.Error("Expected true for %w-wrapped pq.Error")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name: "room reference",
			err: &pq.Error{
				Code:       "23503",
				Message:    "insert or update on table \"messages\" violates foreign key constraint",
				Constraint: "messages_room_id_fkey",
			},
			constraint: "messages_room_id_fkey",
			want:       true,
		},
		{
			name: "other foreign key",
			err: &pq.Error{
				Code:       "23503",
				Constraint: "room_memberships_member_id_fkey",
			},
			constraint: "room_memberships_room_id_fkey",
			want:       false,
		},
		{
			name: "any foreign key",
			err: &pq.Error{
				Code:       "23503",
				Constraint: "rooms_owner_id_fkey",
			},
			constraint: "",
			want:       true,
		},
		{
			name: "unique violation is not foreign key",
			err: &pq.Error{
				Code:       "23505",
				Constraint: "members_nickname_key",
			},
			constraint: "",
			want:       false,
		},
		{
			name: "check constraint violation",
			err: &pq.Error{
				Code:       "23514",
				Constraint: "messages_content_check",
			},
			constraint: "messages_content_check",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsForeignKeyViolation(tt.err, tt.constraint)
			if got != tt.want {
				t.Errorf("IsForeignKeyViolation() = %v, want %v for error code %s",
					got, tt.want, tt.err.(*pq.Error).Code)
			}
		})
	}
}

func TestIsUniqueViolation_CaseSensitiveConstraint(t *testing.T) {
	err := &pq.Error{
		Code:       "23505",
		Constraint: "members_nickname_key",
	}

	if IsUniqueViolation(err, "MEMBERS_NICKNAME_KEY") {
		t.Error("Expected false for case-mismatched constraint name")
	}
}

func TestPQErrorCode_Constants(t *testing.T) {
	if pqUniqueViolation != "23505" {
		t.Errorf("pqUniqueViolation = %s, want 23505", pqUniqueViolation)
	}
	if pqForeignKeyViolation != "23503" {
		t.Errorf("pqForeignKeyViolation = %s, want 23503", pqForeignKeyViolation)
	}
}
