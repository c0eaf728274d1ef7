package api

// Type is a primitive wire type a procedure input field may declare.
type Type string

const (
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeNumber Type = "number"
)

func (t Type) String() string { return string(t) }

func (t Type) Valid() bool {
	return t == TypeString || t == TypeBool || t == TypeNumber
}

// Field is one named, required member of an input object.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Shape describes the object a procedure accepts. Fields not listed are
// tolerated on the wire and ignored by the server.
type Shape []Field
