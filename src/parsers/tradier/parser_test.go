package tradier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers/normalize"
)

func TestTradierParser_Parse(t *testing.T) {
	csv := "\ufefftrade_id,trade_date,symbol,strategy,strike,option_type,side,quantity,avg_price,expiration\n" +
		"IC-7,2024-04-01,SPX,Iron Condor,4900,put,sell_to_open,1,2.40,2024-04-19\n" +
		"IC-7,2024-04-01,SPX,Iron Condor,4850,put,buy_to_open,1,1.10,2024-04-19\n" +
		"IC-7,,SPX,Iron Condor,5300,call,sell_to_open,1,2.10,2024-04-19\n"

	result, err := NewParser(normalize.NewNormalizer(nil)).Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Legs, 2)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 4, result.Rejected[0].Row)
	assert.Equal(t, normalize.FieldTradeDate, result.Rejected[0].Field)

	leg := result.Legs[0]
	assert.Equal(t, "IC-7", leg.TradeID)
	assert.Equal(t, models.ActionSellToOpen, leg.Action)
	assert.Equal(t, models.OptionTypePut, leg.OptionType)
	assert.InDelta(t, 2.40, leg.Premium, 1e-9)
	assert.Equal(t, models.ActionBuyToOpen, result.Legs[1].Action)
}

func TestTradierParser_EmptyFile(t *testing.T) {
	_, err := NewParser(normalize.NewNormalizer(nil)).Parse(strings.NewReader(""))
	assert.Error(t, err)
}
