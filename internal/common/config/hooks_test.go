package config

import (
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Price    decimal.Decimal
	Timeout  time.Duration
	Scenario []string
}

func TestDecodeHooks(t *testing.T) {
	tests := map[string]struct {
		input map[string]any
		want  decodeTarget
	}{
		"float": {
			input: map[string]any{"price": 10.1, "timeout": "5s", "scenario": "scenario1,scenario2"},
			want: decodeTarget{
				Price:    decimal.RequireFromString("10.1"),
				Timeout:  5 * time.Second,
				Scenario: []string{"scenario1", "scenario2"},
			},
		},
		"int": {
			input: map[string]any{"price": 500, "timeout": "10m", "scenario": []string{"scenario3"}},
			want: decodeTarget{
				Price:    decimal.RequireFromString("500"),
				Timeout:  10 * time.Minute,
				Scenario: []string{"scenario3"},
			},
		},
		"string": {
			input: map[string]any{"price": "1.00"},
			want:  decodeTarget{Price: decimal.RequireFromString("1.00")},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var got decodeTarget
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				DecodeHook: mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					mapstructure.StringToSliceHookFunc(","),
					DecimalDecodeHook(),
				),
				Result: &got,
			})
			require.NoError(t, err)
			require.NoError(t, decoder.Decode(tc.input))
			assert.True(t, tc.want.Price.Equal(got.Price), "expected %s but got %s", tc.want.Price, got.Price)
			assert.Equal(t, tc.want.Timeout, got.Timeout)
			assert.Equal(t, tc.want.Scenario, got.Scenario)
		})
	}
}

func TestDecimalDecodeHook_Invalid(t *testing.T) {
	var got decodeTarget
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecimalDecodeHook(),
		Result:     &got,
	})
	require.NoError(t, err)
	assert.Error(t, decoder.Decode(map[string]any{"price": "cheap"}))
}
