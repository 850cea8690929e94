package crisis

// Update is a crisis report as stored and returned to callers.
type Update struct {
	ID          uint64  `json:"id" codec:"id"`
	Title       string  `json:"title" codec:"title"`
	Description string  `json:"description" codec:"description"`
	Location    string  `json:"location" codec:"location"`
	Author      string  `json:"author" codec:"author"`
	CreatedAt   uint64  `json:"created_at" codec:"created_at"`
	Timestamp   *uint64 `json:"timestamp,omitempty" codec:"timestamp"`
}

// Payload carries the caller-editable fields of an Update.
type Payload struct {
	Title       string `json:"title" validate:"min=1"`
	Description string `json:"description" validate:"min=10"`
	Location    string `json:"location" validate:"min=2"`
}

// Clone returns a deep copy so callers never share the Timestamp pointer.
func (u Update) Clone() Update {
	if u.Timestamp != nil {
		ts := *u.Timestamp
		u.Timestamp = &ts
	}
	return u
}

// Modified reports whether the update has been edited since creation.
func (u Update) Modified() bool {
	return u.Timestamp != nil
}

// apply copies payload fields onto the update and stamps the modification time.
func (u *Update) apply(p Payload, now uint64) {
	u.Title = p.Title
	u.Description = p.Description
	u.Location = p.Location
	u.Timestamp = &now
}
