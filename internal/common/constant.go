package common

// DefaultTimezone is assigned to identities that did not pick one.
const DefaultTimezone = "UTC"

// DateLayout is the calendar day format used by ratings, actions and journal.
const DateLayout = "2006-01-02"
