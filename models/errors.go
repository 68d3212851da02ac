package models

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrPhaseViolation      = errors.New("operation not allowed in current phase")
	ErrQuotaExceeded       = errors.New("submission quota exceeded")
	ErrDuplicateSubmission = errors.New("submission already entered")
	ErrAssessmentFailure   = errors.New("assessment failed")
	ErrIncompleteScoring   = errors.New("competition has unscored entries")
)
