package domain

// SubjectType differentiates citizen vs staff tokens.
type SubjectType string

const (
	SubjectTypeCitizen SubjectType = "CITIZEN"
	SubjectTypeStaff   SubjectType = "STAFF"
)
