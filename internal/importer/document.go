package importer

// Document is a bulk load: the four data files of the legacy loader as one JSON body.
// Rows are applied in order: users, events, activities, registrations.
type Document struct {
	Users         []UserRow         `json:"users"`
	Events        []EventRow        `json:"events"`
	Activities    []ActivityRow     `json:"activities"`
	Registrations []RegistrationRow `json:"registrations"`
}

// UserRow creates or updates an identity and its profile.
type UserRow struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// EventRow creates an event unless one with the same name exists.
type EventRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	Location    string `json:"location"`
}

// ActivityRow creates an activity unless one with the same title exists.
// Event and Responsible refer to an event name and a username.
type ActivityRow struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	Type        string `json:"type"`
	Event       string `json:"event"`
	Responsible string `json:"responsible"`
}

// RegistrationRow enrols a user in an event unless the pair is already registered.
type RegistrationRow struct {
	Username string `json:"username"`
	Event    string `json:"event"`
	Status   string `json:"status"`
}

// Counts tallies the outcome of one row kind.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RowError describes a row that could not be applied.
type RowError struct {
	Kind  string `json:"kind"`
	Row   int    `json:"row"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Result is the summary of a bulk load.
type Result struct {
	Users         Counts     `json:"users"`
	Events        Counts     `json:"events"`
	Activities    Counts     `json:"activities"`
	Registrations Counts     `json:"registrations"`
	Errors        []RowError `json:"errors"`
}
