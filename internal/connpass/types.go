package connpass

// EventsResponse is the envelope of GET events/.
type EventsResponse struct {
	ResultsStart     int        `json:"results_start"`
	ResultsReturned  int        `json:"results_returned"`
	ResultsAvailable int        `json:"results_available"`
	Events           []EventDTO `json:"events"`
}

// UsersResponse is the envelope of GET users/.
type UsersResponse struct {
	ResultsStart     int       `json:"results_start"`
	ResultsReturned  int       `json:"results_returned"`
	ResultsAvailable int       `json:"results_available"`
	Users            []UserDTO `json:"users"`
}

// EventDTO is an event as returned by the API. Timestamps are ISO-8601 strings
// with offset; nullable fields are pointers.
type EventDTO struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Catch            string    `json:"catch"`
	Description      *string   `json:"description"`
	URL              string    `json:"url"`
	ImageURL         *string   `json:"image_url"`
	HashTag          string    `json:"hash_tag"`
	StartedAt        string    `json:"started_at"`
	EndedAt          *string   `json:"ended_at"`
	Limit            *int      `json:"limit"`
	EventType        string    `json:"event_type"`
	OpenStatus       string    `json:"open_status"`
	Group            *GroupDTO `json:"group"`
	Address          *string   `json:"address"`
	Place            *string   `json:"place"`
	OwnerID          int64     `json:"owner_id"`
	OwnerNickname    string    `json:"owner_nickname"`
	OwnerDisplayName string    `json:"owner_display_name"`
	Accepted         int       `json:"accepted"`
	Waiting          int       `json:"waiting"`
	UpdatedAt        string    `json:"updated_at"`
}

// GroupDTO is the community an event belongs to.
type GroupDTO struct {
	ID        int64  `json:"id"`
	Subdomain string `json:"subdomain"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// UserDTO is a user as returned by the API.
type UserDTO struct {
	ID                  int64   `json:"id"`
	Nickname            string  `json:"nickname"`
	DisplayName         string  `json:"display_name"`
	Description         *string `json:"description"`
	URL                 string  `json:"url"`
	ImageURL            *string `json:"image_url"`
	CreatedAt           string  `json:"created_at"`
	AttendedEventCount  int     `json:"attended_event_count"`
	OrganizeEventCount  int     `json:"organize_event_count"`
	PresenterEventCount int     `json:"presenter_event_count"`
	BookmarkEventCount  int     `json:"bookmark_event_count"`
}

// Order selects the sort order of an event search.
type Order int

const (
	OrderDefault   Order = 0
	OrderUpdated   Order = 1
	OrderStartDate Order = 2
	OrderNewest    Order = 3
)

// EventQuery holds the parameters of an event search. Slices are sent comma
// separated; zero values are omitted.
type EventQuery struct {
	EventIDs  []int64
	Keywords  []string
	Nicknames []string
	YM        []string // yyyymm
	YMD       []string // yyyymmdd
	Start     int      // 1-indexed
	Count     int      // 1..100
	Order     Order
}

// UserQuery holds the parameters of a user search.
type UserQuery struct {
	Nicknames []string
	Start     int
	Count     int
}
