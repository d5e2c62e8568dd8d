package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewerRole distinguishes ordinary reviewers from the reference reviewer
// whose finalized text is treated as ground truth.
type ReviewerRole string

// Possible reviewer roles. Exactly one reviewer conventionally holds
// RoleReference; this is enforced by initialization, not by a constraint.
const (
	RoleReviewer  ReviewerRole = "reviewer"
	RoleReference ReviewerRole = "reference"
)

// Common validation errors for Reviewer
var (
	ErrEmptyReviewerID       = errors.New("reviewer ID cannot be empty")
	ErrEmptyReviewerName     = errors.New("reviewer name cannot be empty")
	ErrEmptyReviewerPassword = errors.New("reviewer password hash cannot be empty")
	ErrInvalidReviewerRole   = errors.New("invalid reviewer role")
)

// Reviewer is a human account that can hold and act on Assignments.
// The password hash is opaque to the task engine; only the auth
// collaborator ever inspects it.
type Reviewer struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	HashedPassword string       `json:"-"`
	Role           ReviewerRole `json:"role"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewReviewer creates a new Reviewer with the given name, password hash and
// role. It generates a new UUID and sets the creation timestamp.
// Returns an error if validation fails.
func NewReviewer(name, hashedPassword string, role ReviewerRole) (*Reviewer, error) {
	reviewer := &Reviewer{
		ID:             uuid.New(),
		Name:           name,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}

	if err := reviewer.Validate(); err != nil {
		return nil, err
	}

	return reviewer, nil
}

// Validate checks if the Reviewer has valid data.
func (r *Reviewer) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReviewerID
	}

	if r.Name == "" {
		return ErrEmptyReviewerName
	}

	if r.HashedPassword == "" {
		return ErrEmptyReviewerPassword
	}

	if !isValidReviewerRole(r.Role) {
		return ErrInvalidReviewerRole
	}

	return nil
}

// IsReference reports whether this reviewer holds the reference role.
func (r *Reviewer) IsReference() bool {
	return r.Role == RoleReference
}

// isValidReviewerRole checks if the given role is a valid ReviewerRole.
func isValidReviewerRole(role ReviewerRole) bool {
	switch role {
	case RoleReviewer, RoleReference:
		return true
	default:
		return false
	}
}
