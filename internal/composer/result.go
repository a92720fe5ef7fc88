package composer

import "github.com/campusnav/campus-navigator-go/internal/catalog"

// Type discriminates a Result on the wire.
type Type string

const (
	TypeGreeting Type = "greeting"
	TypeLocation Type = "location"
	TypeRoute    Type = "route"
	TypeAnswer   Type = "answer"
	TypeError    Type = "error"
)

// Place is the wire form of a catalog entity.
type Place struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
}

// PlaceOf copies the public fields of e.
func PlaceOf(e catalog.Entity) Place {
	return Place{Name: e.Name, Lat: e.Lat, Lng: e.Lng, Description: e.Description}
}

// Result is the tagged outcome of resolving a query. Which fields are set
// depends on Type:
//
//	greeting, answer, error: Message
//	location:                the embedded Place, flattened into the object
//	route:                   From and To
type Result struct {
	Type    Type   `json:"type"`
	Message string `json:"message,omitempty"`
	*Place
	From *Place `json:"from,omitempty"`
	To   *Place `json:"to,omitempty"`
}

// IsError reports whether r is an error result.
func (r Result) IsError() bool {
	return r.Type == TypeError
}

func messageResult(t Type, msg string) Result {
	return Result{Type: t, Message: msg}
}
