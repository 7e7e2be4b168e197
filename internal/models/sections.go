package models

// SectionDef names a section every output document starts with.
type SectionDef struct {
	Code  string
	Title string
}

// DefaultSections is the fixed section set of a new output document, in order.
// QC treats the same list as required.
var DefaultSections = []SectionDef{
	{Code: "SYNOPSIS", Title: "Synopsis"},
	{Code: "EFFICACY", Title: "Efficacy Results"},
	{Code: "SAFETY", Title: "Safety Results"},
	{Code: "PK", Title: "Pharmacokinetics"},
	{Code: "DISCUSSION", Title: "Discussion"},
}
