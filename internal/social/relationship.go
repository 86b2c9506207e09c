package social

// Relationship is the point-in-time label describing the social-graph state
// between the current user and a candidate user.
type Relationship string

const (
	RelationshipNone     Relationship = "NONE"
	RelationshipFriend   Relationship = "FRIEND"
	RelationshipSent     Relationship = "SENT"     // current user has a pending request to the candidate
	RelationshipReceived Relationship = "RECEIVED" // candidate has a pending request to the current user
)

// Classify reduces the three overlapping relations to exactly one label.
// Precedence is first-match-wins: an existing friendship supersedes any stale
// pending request in either direction, and a sent request supersedes a
// received one. Pure function; callers evaluate the three relation lookups in
// this same order so later lookups can be skipped once one matches.
func Classify(areFriends, sentPending, receivedPending bool) Relationship {
	switch {
	case areFriends:
		return RelationshipFriend
	case sentPending:
		return RelationshipSent
	case receivedPending:
		return RelationshipReceived
	default:
		return RelationshipNone
	}
}
