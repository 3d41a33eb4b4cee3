package storage

import (
	"fmt"
	"regexp"

	"github.com/pixil98/go-errors"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)

type ValidatingSpec interface {
	Validate() error
}

// Identifier names a stored asset. It doubles as the file name for FileStore
// and the primary key for SQLStore, so it is restricted to a safe alphabet.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

func (id Identifier) Validate() error {
	if id == "" {
		return fmt.Errorf("id must be set")
	}
	if !identifierPattern.MatchString(id.String()) {
		return fmt.Errorf("id %q must contain only letters, digits, '-' or '_'", id)
	}
	return nil
}

// Asset is the envelope every persisted spec is wrapped in.
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

	el.Add(a.Identifier.Validate())
	el.Add(a.Spec.Validate())

	return el.Err()
}
