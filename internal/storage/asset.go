package storage

import (
	"fmt"
	"regexp"

	"github.com/pixil98/go-errors"
)

// Room ids carry signed coordinates, so '+' is allowed alongside the usual characters.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9+-]*$`)

// ValidatingSpec is implemented by every asset payload.
type ValidatingSpec interface {
	Validate() error
}

// Identifier is the id of an authored asset.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Asset is the on-disk envelope of one authored world record.
type Asset[T ValidatingSpec] struct {
	Version    uint       `json:"version"`
	Identifier Identifier `json:"id"`
	Spec       T          `json:"spec"`
}

func (a *Asset[T]) Id() Identifier {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	if a.Version == 0 {
		el.Add(fmt.Errorf("version must be set"))
	}

	if a.Identifier == "" {
		el.Add(fmt.Errorf("id must be set"))
	}

	if !identifierPattern.MatchString(a.Identifier.String()) {
		el.Add(fmt.Errorf("id must be alphanumeric"))
	}

	el.Add(a.Spec.Validate())

	return el.Err()
}
