package models

// SelectionKind discriminates whose schedule a request reads.
type SelectionKind int

const (
	// SelectCurrentUser reads the authenticated caller's own schedule.
	SelectCurrentUser SelectionKind = iota
	// SelectClass reads a classmate's schedule by class reference.
	SelectClass
	// SelectShare reads another user's schedule through a share link.
	SelectShare
)

// Selection is the request-scoped descriptor, parsed up-front so that
// contradictory query strings are rejected before any I/O.
type Selection struct {
	Kind  SelectionKind
	Class string
	Share LinkID
}

// SelfSelection selects the current user.
func SelfSelection() Selection {
	return Selection{Kind: SelectCurrentUser}
}

// ClassSelection selects a classmate's schedule.
func ClassSelection(reference string) Selection {
	return Selection{Kind: SelectClass, Class: reference}
}

// ShareSelection selects through a share link.
func ShareSelection(id LinkID) Selection {
	return Selection{Kind: SelectShare, Share: id}
}
