package services

import "errors"

// Workflow failure taxonomy. Handlers translate these into distinct
// user-visible reasons; everything else surfaces as a generic failure.
var (
	ErrUnauthenticated = errors.New("no authenticated actor")
	ErrUnauthorized    = errors.New("actor lacks a required role")
	ErrNotFound        = errors.New("record not found")
	ErrInvalidStatus   = errors.New("status does not exist in the catalog")
	ErrInvalidPriority = errors.New("priority does not exist in the catalog")

	// ErrPriorityMissing means the seeded Medium priority is absent. That is
	// an operational misconfiguration, not a user error, and is logged as such.
	ErrPriorityMissing = errors.New("required priority seed data is missing")

	ErrHasExecutions = errors.New("test case is referenced by execution records")
	ErrHasLinkedCase = errors.New("defect is linked to a test case execution")
)
