package roster

import (
	"errors"
	"fmt"
)

// Group is a named, ordered set of record ids shown together on the board.
//
// Groups are read-only configuration. A member id that has no matching
// record simply produces no entry in the projection.
type Group struct {
	// Key identifies the group in API responses and projections.
	Key string `json:"key"`

	// Title is the display heading.
	Title string `json:"title"`

	// Members lists the record ids belonging to the group.
	Members []string `json:"members"`
}

// DefaultRecords returns the built-in seed list used when no people are
// configured. Everyone starts out.
func DefaultRecords() []Record {
	return []Record{
		{ID: "amara", Name: "Amara Okafor", Status: StatusOut},
		{ID: "bruno", Name: "Bruno Costa", Status: StatusOut},
		{ID: "chen", Name: "Chen Wei", Status: StatusOut},
		{ID: "dana", Name: "Dana Kowalski", Status: StatusOut},
		{ID: "elif", Name: "Elif Demir", Status: StatusOut},
		{ID: "farid", Name: "Farid Haddad", Status: StatusOut},
		{ID: "greta", Name: "Greta Lindqvist", Status: StatusOut},
		{ID: "hiro", Name: "Hiro Tanaka", Status: StatusOut},
	}
}

// DefaultGroups returns the built-in three-team table matching
// [DefaultRecords].
func DefaultGroups() []Group {
	return []Group{
		{Key: "managers", Title: "Managers", Members: []string{"amara", "bruno"}},
		{Key: "engineering", Title: "Engineering", Members: []string{"chen", "dana", "elif"}},
		{Key: "operations", Title: "Operations", Members: []string{"farid", "greta", "hiro"}},
	}
}

// ValidateRecords checks that every record has an id, a name and a
// valid status, and that ids are unique.
func ValidateRecords(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("people[%d]: id is required", i)
		}
		if r.Name == "" {
			return fmt.Errorf("people[%d] (%s): name is required", i, r.ID)
		}
		if !r.Status.Valid() {
			return fmt.Errorf("people[%d] (%s): %w, got %q", i, r.ID, ErrInvalidStatus, r.Status)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("people[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// ValidateGroups checks that group keys are unique and non-empty and
// that every member id refers to a record in records.
func ValidateGroups(groups []Group, records []Record) error {
	if len(groups) == 0 {
		return errors.New("at least one group is required")
	}

	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}

	keys := make(map[string]struct{}, len(groups))
	for i, g := range groups {
		if g.Key == "" {
			return fmt.Errorf("groups[%d]: key is required", i)
		}
		if _, dup := keys[g.Key]; dup {
			return fmt.Errorf("groups[%d]: duplicate key %q", i, g.Key)
		}
		keys[g.Key] = struct{}{}

		for _, m := range g.Members {
			if _, ok := ids[m]; !ok {
				return fmt.Errorf("groups[%d] (%s): unknown member id %q", i, g.Key, m)
			}
		}
	}
	return nil
}
