package domain

// MembershipSet is the set of item ids one user holds for one relation.
type MembershipSet map[string]struct{}

func NewMembershipSet(ids ...string) MembershipSet {
	s := make(MembershipSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s MembershipSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s MembershipSet) Add(id string)    { s[id] = struct{}{} }
func (s MembershipSet) Remove(id string) { delete(s, id) }

func (s MembershipSet) Clone() MembershipSet {
	c := make(MembershipSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Membership maps every relation to its set. A zero Membership is usable for reads.
type Membership map[Relation]MembershipSet

// EmptyMembership returns a map with an empty set for every relation.
func EmptyMembership() Membership {
	m := make(Membership, len(Relations))
	for _, r := range Relations {
		m[r] = MembershipSet{}
	}
	return m
}

func (m Membership) Has(r Relation, id string) bool {
	return m[r].Has(id)
}

func (m Membership) Set(r Relation, id string, member bool) {
	s, ok := m[r]
	if !ok {
		s = MembershipSet{}
		m[r] = s
	}
	if member {
		s.Add(id)
	} else {
		s.Remove(id)
	}
}

func (m Membership) Clone() Membership {
	c := make(Membership, len(m))
	for r, s := range m {
		c[r] = s.Clone()
	}
	return c
}

// ToggleState is the reconciler's view of one (item, relation) key.
type ToggleState int

const (
	StateAbsent ToggleState = iota
	StatePresent
	StatePendingPresent
	StatePendingAbsent
)

func (s ToggleState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StatePendingPresent:
		return "pending_present"
	case StatePendingAbsent:
		return "pending_absent"
	default:
		return "absent"
	}
}

// Member reports the membership the state displays, pending states included.
func (s ToggleState) Member() bool {
	return s == StatePresent || s == StatePendingPresent
}

func (s ToggleState) Pending() bool {
	return s == StatePendingPresent || s == StatePendingAbsent
}
