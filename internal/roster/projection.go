package roster

// GroupView is one group's slice of the board, ready for rendering.
type GroupView struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	In      int      `json:"in"`
	Total   int      `json:"total"`
	Records []Record `json:"records"`
}

// GroupRecords maps each group key to the records whose id is listed
// in that group's members.
//
// Records keep the order they have in records (storage order), not the
// order of the group's member list.
func GroupRecords(records []Record, groups []Group) map[string][]Record {
	out := make(map[string][]Record, len(groups))
	for _, g := range groups {
		out[g.Key] = filterMembers(records, g.Members)
	}
	return out
}

// CountIn returns how many records have status [StatusIn].
func CountIn(records []Record) int {
	n := 0
	for _, r := range records {
		if r.Status == StatusIn {
			n++
		}
	}
	return n
}

// Project builds the display board: one [GroupView] per group, in
// group declaration order, each with its "in" count.
func Project(records []Record, groups []Group) []GroupView {
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		members := filterMembers(records, g.Members)
		views = append(views, GroupView{
			Key:     g.Key,
			Title:   g.Title,
			In:      CountIn(members),
			Total:   len(members),
			Records: members,
		})
	}
	return views
}

func filterMembers(records []Record, members []string) []Record {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}

	// non-nil so empty groups encode as [] rather than null
	out := []Record{}
	for _, r := range records {
		if _, ok := set[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}
