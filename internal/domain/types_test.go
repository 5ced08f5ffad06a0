package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawOrderRequest_Unmarshal(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		wantQty  RawValue
		wantPx   RawValue
		wantType string
	}{
		{
			name:     "numbers",
			body:     `{"symbol":"BTCUSDT","side":"BUY","type":"MARKET","quantity":0.01}`,
			wantQty:  "0.01",
			wantType: "MARKET",
		},
		{
			name:     "strings",
			body:     `{"symbol":"ETHUSDT","side":"SELL","type":"LIMIT","quantity":"0.5","price":"2650.00"}`,
			wantQty:  "0.5",
			wantPx:   "2650.00",
			wantType: "LIMIT",
		},
		{
			name:     "null price",
			body:     `{"symbol":"ETHUSDT","side":"SELL","type":"LIMIT","quantity":1,"price":null}`,
			wantQty:  "1",
			wantType: "LIMIT",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var req RawOrderRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.wantQty, req.Quantity)
			assert.Equal(t, tc.wantPx, req.Price)
			assert.Equal(t, tc.wantType, req.OrderType)
		})
	}
}

func TestRawOrderRequest_MistypedFields(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		mistyped []string
		assertFn func(t *testing.T, req RawOrderRequest)
	}{
		{
			name:     "number symbol",
			body:     `{"symbol":123,"side":"BUY","type":"MARKET","quantity":1}`,
			mistyped: []string{"symbol"},
			assertFn: func(t *testing.T, req RawOrderRequest) {
				assert.Empty(t, req.Symbol)
				assert.Equal(t, RawValue("1"), req.Quantity)
			},
		},
		{
			name:     "boolean quantity",
			body:     `{"symbol":"BTCUSDT","side":"BUY","type":"MARKET","quantity":true}`,
			mistyped: []string{"quantity"},
			assertFn: func(t *testing.T, req RawOrderRequest) {
				assert.True(t, req.Quantity.IsZero())
				assert.Equal(t, "BTCUSDT", req.Symbol)
			},
		},
		{
			name:     "object price and array side",
			body:     `{"symbol":"BTCUSDT","side":["BUY"],"type":"LIMIT","quantity":1,"price":{"x":1}}`,
			mistyped: []string{"side", "price"},
			assertFn: func(t *testing.T, req RawOrderRequest) {
				assert.True(t, req.IsMistyped("price"))
				assert.False(t, req.IsMistyped("quantity"))
			},
		},
		{
			name: "null text fields are empty, not mistyped",
			body: `{"symbol":null,"side":null,"type":null,"quantity":null}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var req RawOrderRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.mistyped, req.Mistyped)
			if tc.assertFn != nil {
				tc.assertFn(t, req)
			}
		})
	}
}

func TestRawOrderRequest_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{`null`, `[]`, `"BTCUSDT"`, `42`} {
		var req RawOrderRequest
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}

func TestRawValue_RejectsObjects(t *testing.T) {
	var v RawValue
	assert.Error(t, json.Unmarshal([]byte(`{"v":1}`), &v))
}

func TestLogLevel_Rank(t *testing.T) {
	assert.Less(t, LevelInfo.Rank(), LevelWarn.Rank())
	assert.Less(t, LevelWarn.Rank(), LevelError.Rank())
	assert.Equal(t, 0, LogLevel("TRACE").Rank())
}
