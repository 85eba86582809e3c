package events

import (
	"strings"
	"time"
)

type Kind string

// Category is the part of the kind before the first dot, for example
// "user_input" for "user_input.level".
func (k Kind) Category() string {
	category, _, _ := strings.Cut(string(k), ".")
	return category
}

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.timestamp }
