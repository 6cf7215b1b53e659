package reservation

// GroupIndex indexes records by GroupID so siblings can be found without
// scanning. Removing a record only drops its own link.
type GroupIndex struct {
	groupOf map[string]string   // record id -> group id
	members map[string][]string // group id -> record ids in insertion order
}

// NewGroupIndex indexes records that carry a GroupID.
func NewGroupIndex(records []Record) *GroupIndex {
	g := &GroupIndex{
		groupOf: make(map[string]string),
		members: make(map[string][]string),
	}
	for _, r := range records {
		if r.GroupID == "" {
			continue
		}
		g.groupOf[r.ID] = r.GroupID
		g.members[r.GroupID] = append(g.members[r.GroupID], r.ID)
	}
	return g
}

// Siblings returns the other record ids sharing id's group.
func (g *GroupIndex) Siblings(id string) []string {
	gid, ok := g.groupOf[id]
	if !ok {
		return nil
	}
	var out []string
	for _, m := range g.members[gid] {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

// Remove drops id from the index and returns the siblings left behind. They
// stay indexed under the same group even when only one remains.
func (g *GroupIndex) Remove(id string) []string {
	siblings := g.Siblings(id)
	gid, ok := g.groupOf[id]
	if !ok {
		return nil
	}
	delete(g.groupOf, id)
	if len(siblings) == 0 {
		delete(g.members, gid)
	} else {
		g.members[gid] = siblings
	}
	return siblings
}

// Orphaned reports whether id's group has no other members.
func (g *GroupIndex) Orphaned(id string) bool {
	_, grouped := g.groupOf[id]
	return grouped && len(g.Siblings(id)) == 0
}

// Sever returns records without id. Siblings keep their GroupID.
func Sever(records []Record, id string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
