package roster

// Record is one tracked person.
//
// The JSON form is the persisted wire format shared by every view:
// {"id":"a","name":"Ada","status":"in","updatedAt":1700000000000}.
type Record struct {
	// ID is the stable join key across defaults, storage and groups.
	ID string `json:"id"`

	// Name is the display label.
	Name string `json:"name"`

	// Status is the current presence state.
	Status Status `json:"status"`

	// UpdatedAt is the last status change in milliseconds since epoch.
	// Zero means the record has never been toggled.
	UpdatedAt int64 `json:"updatedAt"`
}

// CopyRecords returns a copy of the slice; nil stays nil.
func CopyRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	cp := make([]Record, len(records))
	copy(cp, records)
	return cp
}

// IndexOf returns the position of the record with the given id, or -1.
func IndexOf(records []Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
