package main

import "github.com/castlebit/storekit/entity"

// Note is the demo entity the walkthrough stores.
type Note struct {
	entity.Metadata
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

// notes is the Descriptor wiring Note into the generic repositories.
var notes entity.Descriptor[*Note] = noteDescriptor{}

type noteDescriptor struct{}

func (noteDescriptor) Name() string { return "notes" }

func (noteDescriptor) New() *Note { return &Note{} }

func (noteDescriptor) Clone(n *Note) *Note {
	if n == nil {
		return nil
	}
	clone := *n
	return &clone
}

func (noteDescriptor) Value(n *Note, field string) (any, bool) {
	switch field {
	case "id":
		return n.ID, true
	case "created_at":
		return n.CreatedAt, true
	case "updated_at":
		return n.UpdatedAt, true
	case "title":
		return n.Title, true
	case "tag":
		return n.Tag, true
	}
	return nil, false
}
