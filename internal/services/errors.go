package services

import (
	"errors"
	"fmt"
)

// Error categories. Every service error wraps exactly one of them.
var (
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrStateConflict = errors.New("state conflict")
	ErrValidation    = errors.New("validation failed")
)

var (
	ErrTicketNotFound  = fmt.Errorf("%w: ticket not found", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("%w: project not found", ErrNotFound)

	ErrNotAssignee        = fmt.Errorf("%w: only the assignee can perform this action", ErrAuthorization)
	ErrNotAssigneeOrAdmin = fmt.Errorf("%w: only the assignee or an admin can change the status", ErrAuthorization)
	ErrAdminRequired      = fmt.Errorf("%w: admin role required", ErrAuthorization)

	ErrTicketValidated = fmt.Errorf("%w: ticket is already validated", ErrStateConflict)
	ErrTicketNotDone   = fmt.Errorf("%w: only DONE tickets can be validated", ErrStateConflict)

	ErrTitleRequired        = fmt.Errorf("%w: title is required", ErrValidation)
	ErrNameRequired         = fmt.Errorf("%w: name is required", ErrValidation)
	ErrAssigneeRequired     = fmt.Errorf("%w: assignee is required", ErrValidation)
	ErrEmployeeRequired     = fmt.Errorf("%w: employee is required", ErrValidation)
	ErrContentRequired      = fmt.Errorf("%w: content is required", ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("%w: unknown ticket status", ErrValidation)
	ErrInvalidEstimate      = fmt.Errorf("%w: estimated time cannot be negative", ErrValidation)
	ErrInvalidInterval      = fmt.Errorf("%w: end time must be after start time", ErrValidation)
	ErrInvalidDuration      = fmt.Errorf("%w: duration must be greater than zero", ErrValidation)
	ErrInvalidDateRange     = fmt.Errorf("%w: end date must not be before start date", ErrValidation)
	ErrEstimateExceeded     = fmt.Errorf("%w: worked time would exceed the estimated time", ErrValidation)
	ErrAINoTicketsGenerated = fmt.Errorf("%w: AI did not draft any tickets", ErrValidation)
	ErrAINoValidTickets     = fmt.Errorf("%w: no valid tickets could be drafted from AI output", ErrValidation)

	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
)
