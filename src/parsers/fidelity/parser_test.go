package fidelity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers/normalize"
)

const activityCSV = `
Brokerage

Run Date,Action,Symbol,Description,Type,Quantity,Price ($),Commission ($),Amount ($)
02/01/2024,YOU SOLD OPENING TRANSACTION CALL (AAPL) APPLE INC FEB 16 24 $190 (100 SHS) (Margin), -AAPL240216C190,CALL (AAPL) APPLE INC FEB 16 24 $190,Margin,-1,2.15,0.65,214.35
02/01/2024,YOU BOUGHT OPENING TRANSACTION CALL (AAPL) APPLE INC FEB 16 24 $185 (100 SHS) (Margin), -AAPL240216C185,CALL (AAPL) APPLE INC FEB 16 24 $185,Margin,1,4.20,0.65,-420.65
02/05/2024,DIVIDEND RECEIVED SPDR S&P 500 ETF (SPY) (Cash),SPY,SPDR S&P 500 ETF,Cash,,,,12.40
02/09/2024,YOU BOUGHT CLOSING TRANSACTION PUT (SPY) SPDR S&P 500 ETF FEB 16 24 $412.5 (100 SHS) (Margin), -SPY240216P412.5,PUT (SPY),Margin,1,0.35,0.65,-35.65
02/10/2024,YOU BOUGHT OPENING TRANSACTION,,missing symbol,Margin,1,1.00,0,-100

"The data and information in this spreadsheet is provided to you solely for your use."
`

func TestFidelityParser_Parse(t *testing.T) {
	result, err := NewParser(normalize.NewNormalizer(nil)).Parse(strings.NewReader(activityCSV))
	require.NoError(t, err)

	require.Len(t, result.Legs, 3)
	assert.Equal(t, 1, result.Skipped, "dividend line is skipped")
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, normalize.FieldSymbol, result.Rejected[0].Field)

	short := result.Legs[0]
	assert.Equal(t, "AAPL", short.Symbol)
	assert.Equal(t, models.ActionSellToOpen, short.Action)
	assert.Equal(t, models.OptionTypeCall, short.OptionType)
	require.NotNil(t, short.Strike)
	assert.InDelta(t, 190.0, *short.Strike, 1e-9)
	require.NotNil(t, short.Expiry)
	assert.Equal(t, models.NewDate(2024, time.February, 16), *short.Expiry)
	assert.Equal(t, models.NewDate(2024, time.February, 1), short.TradeDate)
	assert.InDelta(t, 2.15, short.Premium, 1e-9)

	closing := result.Legs[2]
	assert.Equal(t, "SPY", closing.Symbol)
	assert.Equal(t, models.ActionBuyToClose, closing.Action)
	assert.Equal(t, models.OptionTypePut, closing.OptionType)
	require.NotNil(t, closing.Strike)
	assert.InDelta(t, 412.5, *closing.Strike, 1e-9)
}

func TestMapAction(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"YOU BOUGHT OPENING TRANSACTION CALL (X)", models.ActionBuyToOpen},
		{"you sold opening transaction put", models.ActionSellToOpen},
		{"YOU SOLD CLOSING TRANSACTION CALL", models.ActionSellToClose},
		{"YOU BOUGHT CLOSING TRANSACTION PUT", models.ActionBuyToClose},
		{"Sell to Close", models.ActionSellToClose},
		{"EXPIRED CALL (AAPL)", "EXPIRED CALL (AAPL)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapAction(tt.in), tt.in)
	}
}
