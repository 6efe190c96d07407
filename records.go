package inoutboard

import "github.com/zachittx/inoutboard/internal/roster"

// Record is one tracked person: id, display name, in/out status and the
// time of the last status change in milliseconds since epoch.
type Record = roster.Record

// Status is a person's presence state.
type Status = roster.Status

// Group is a titled set of record ids shown together on the display.
type Group = roster.Group

// GroupView is one group's projection: its records in storage order
// and how many of them are in.
type GroupView = roster.GroupView

// Theme is the persisted colour scheme preference.
type Theme = roster.Theme

const (
	StatusIn  = roster.StatusIn
	StatusOut = roster.StatusOut

	ThemeDark  = roster.ThemeDark
	ThemeLight = roster.ThemeLight
)

// ErrInvalidStatus is returned for a status other than "in" or "out".
var ErrInvalidStatus = roster.ErrInvalidStatus

// ParseStatus converts "in" or "out" to a [Status].
func ParseStatus(s string) (Status, error) {
	return roster.ParseStatus(s)
}

// DefaultRecords returns the built-in people, all out.
func DefaultRecords() []Record {
	return roster.DefaultRecords()
}

// DefaultGroups returns the built-in team table for [DefaultRecords].
func DefaultGroups() []Group {
	return roster.DefaultGroups()
}

// GroupRecords maps each group key to its members' records, in the
// order they appear in records.
func GroupRecords(records []Record, groups []Group) map[string][]Record {
	return roster.GroupRecords(records, groups)
}

// CountIn returns how many records are in.
func CountIn(records []Record) int {
	return roster.CountIn(records)
}
