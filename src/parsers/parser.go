// backend/src/parsers/parser.go
package parsers

import (
	"errors"
	"io"

	"github.com/username/optionledger/backend/src/models"
)

// ErrUnknownSource is returned when no parser exists for a source.
var ErrUnknownSource = errors.New("unknown source")

// Parser is implemented by every broker-specific export reader.
type Parser interface {
	Parse(file io.Reader) (*models.ParseResult, error)
}
