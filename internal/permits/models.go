package permits

import "time"

// Kind distinguishes the two request tables.
type Kind string

const (
	KindPermit    Kind = "permiso"
	KindEquipment Kind = "equipo"
)

// Request is one permit or equipment request as shown in listings.
type Request struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"requestType"`
	NoveltyType string    `json:"noveltyType"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	UserType    string    `json:"userType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OwnerCode is the code of the employee who filed the request.
func (r Request) OwnerCode() string { return r.Code }

// Filter constrains a listing. Empty fields do not filter.
type Filter struct {
	UserCode    string
	UserType    string
	Status      string
	NoveltyType string
}

type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

func (p Page) normalized() Page {
	out := p
	if out.Limit <= 0 {
		out.Limit = defaultPageLimit
	}
	if out.Limit > maxPageLimit {
		out.Limit = maxPageLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}
