// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers/fidelity"
	"github.com/username/optionledger/backend/src/parsers/normalize"
	"github.com/username/optionledger/backend/src/parsers/tradier"
	"github.com/username/optionledger/backend/src/parsers/webull"
)

// GetParser returns the parser for source. A nil normalizer uses the default alias table.
func GetParser(source models.Source, n *normalize.Normalizer) (Parser, error) {
	if n == nil {
		n = normalize.NewNormalizer(nil)
	}
	switch source {
	case models.SourceFidelity:
		return fidelity.NewParser(n), nil
	case models.SourceTradier:
		return tradier.NewParser(n), nil
	case models.SourceWebull:
		return webull.NewParser(n), nil
	default:
		return nil, fmt.Errorf("%w: no parser available for %q", ErrUnknownSource, source)
	}
}
