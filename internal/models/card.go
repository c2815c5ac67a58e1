package models

import "github.com/google/uuid"

// CardType separates the two deck halves.
type CardType string

const (
	CardTypePrompt   CardType = "prompt"
	CardTypeResponse CardType = "response"
)

// Card is read-only input owned by the content-management subsystem; the
// game engine never mutates card rows.
type Card struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Type   CardType  `db:"card_type" json:"type"`
	Text   string    `db:"text" json:"text"` // may contain inline markdown markers
	Pick   int       `db:"pick" json:"pick"` // prompt only; 0 means default of 1
	Active bool      `db:"active" json:"active"`

	TagIDs []uuid.UUID `db:"-" json:"tagIds,omitempty"`
}

// PickCount returns the number of response cards the prompt requires.
func (c *Card) PickCount() int {
	if c.Pick <= 0 {
		return 1
	}
	return c.Pick
}

// Tag is a content-filter category assigned to cards (e.g. explicit content
// buckets produced by the import tooling).
type Tag struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Active bool      `db:"active" json:"active"`
}
