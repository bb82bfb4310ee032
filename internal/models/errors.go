package models

import "errors"

// Validation errors for snapshot payloads.
var (
	ErrMissingTicker      = errors.New("snapshot missing ticker")
	ErrMissingAnnualData  = errors.New("snapshot missing annual data")
	ErrMissingAssumptions = errors.New("snapshot missing assumptions")
	ErrMissingCompanyInfo = errors.New("snapshot missing company info")
)
