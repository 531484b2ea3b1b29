package models

// ListMode is the visibility of a list.
type ListMode string

const (
	ListModePublic  ListMode = "Public"
	ListModePrivate ListMode = "Private"
)

// ListRecord is the normalized form of an X list.
type ListRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	MemberCount     int      `json:"member_count"`
	SubscriberCount int      `json:"subscriber_count"`
	Mode            ListMode `json:"mode"`
	CreatedAt       int64    `json:"created_at"` // Unix timestamp in ms, 0 when unknown
	OwnerHandle     string   `json:"owner_handle,omitempty"`
	OwnerName       string   `json:"owner_name,omitempty"`
}

// MemberRecord is the normalized form of a list member. Members are addressed
// by their immutable platform id; the same id can appear on more than one page
// when the list mutates during an export, and consumers must tolerate that.
type MemberRecord struct {
	ID              string `json:"id"`
	Handle          string `json:"handle"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	FollowersCount  int    `json:"followers_count"`
	FollowingCount  int    `json:"following_count"`
	Verified        bool   `json:"verified"`
	ProfileImageURL string `json:"profile_image_url"`
	CreatedAt       string `json:"created_at,omitempty"`
	Location        string `json:"location,omitempty"`
	URL             string `json:"url,omitempty"`
}

// ExportResult is the final export artifact. It is assembled once after a
// fully successful run and never mutated afterward.
type ExportResult struct {
	List        ListRecord     `json:"list"`
	ExportedAt  string         `json:"exported_at"` // RFC3339 UTC
	MemberCount int            `json:"member_count"`
	Members     []MemberRecord `json:"members"`
}
