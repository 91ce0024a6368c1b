package types

// Status is a type for the row lifecycle status of a resource in the database.
// This is distinct from domain lifecycles like SspEntryStatus which track
// business state, not storage state.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
