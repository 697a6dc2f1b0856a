package validation

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizers(t *testing.T) {
	assert.Equal(t, "AAPL", SanitizeSymbol(" <i>aapl</i> "))
	assert.Equal(t, "P&L Tracker", SanitizeLabel("<b>P&amp;L</b> Tracker "))

	tests := []struct{ in, want string }{
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-2", "'-2"},
		{"@cmd", "'@cmd"},
		{"SPY", "SPY"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeForFormulaInjection(tt.in), "input %q", tt.in)
	}
}

func TestValidateSymbolAndStrategy(t *testing.T) {
	assert.NoError(t, ValidateSymbol("BRK.B"))
	assert.Error(t, ValidateSymbol(""))
	assert.Error(t, ValidateSymbol("TOOLONGSYMBOL"))
	assert.Error(t, ValidateSymbol("spy"))

	assert.NoError(t, ValidateStrategyKind("iron_condor"))
	assert.Error(t, ValidateStrategyKind("Iron Condor"))
}

func TestValidateDateString(t *testing.T) {
	_, err := ValidateDateString("2024-04-19", "expiry")
	assert.NoError(t, err)
	_, err = ValidateDateString("2024-02-30", "expiry")
	assert.True(t, errors.Is(err, ErrValidationFailed))
}

func TestValidateLegArrays(t *testing.T) {
	tests := []struct {
		name       string
		strikes    []float64
		quantities []float64
		wantErr    bool
	}{
		{"matching", []float64{100, 105}, []float64{1, 1}, false},
		{"empty", nil, nil, true},
		{"length mismatch", []float64{100, 105}, []float64{1}, true},
		{"zero strike", []float64{0, 105}, []float64{1, 1}, true},
		{"negative quantity", []float64{100, 105}, []float64{1, -1}, true},
		{"too many legs", make9(100), make9(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLegArrays(tt.strikes, tt.quantities)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidationFailed))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func make9(v float64) []float64 {
	out := make([]float64, MaxLegs+1)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("text/csv; charset=utf-8"))
	assert.NoError(t, ValidateClientContentType("application/vnd.ms-excel"))
	assert.Error(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Error(t, ValidateClientContentType(""))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	t.Run("csv text is accepted and rewound", func(t *testing.T) {
		body := "symbol,qty\nSPY,1\n" + strings.Repeat("x", 2048)
		file := strings.NewReader(body)
		_, err := ValidateFileContentByMagicBytes(file)
		require.NoError(t, err)
		rest, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, body, string(rest))
	})

	t.Run("binary is rejected", func(t *testing.T) {
		_, err := ValidateFileContentByMagicBytes(bytes.NewReader([]byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x01}))
		assert.True(t, errors.Is(err, ErrValidationFailed))
	})

	t.Run("empty is rejected", func(t *testing.T) {
		_, err := ValidateFileContentByMagicBytes(bytes.NewReader(nil))
		assert.True(t, errors.Is(err, ErrValidationFailed))
	})
}
