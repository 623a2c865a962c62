package constants

const (
	// DateKeyLayout describes the day-month-year keys used for calendar entries (D-M-YYYY)
	DateKeyLayout = "%d-%d-%d"

	// StartOfDay is the effective start of an entry without a start time
	StartOfDay = "00:00"

	// EndOfDay is the effective end of an entry without an end time
	EndOfDay = "24:00"
)
