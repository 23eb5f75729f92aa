package models

import (
	"encoding/json"
	"testing"
)

func TestNumberUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`null`, 0},
		{`"oops"`, 0},
		{`""`, 0},
		{`true`, 0},
	}
	for _, tc := range cases {
		var n Number
		if err := json.Unmarshal([]byte(tc.in), &n); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if float64(n) != tc.want {
			t.Fatalf("unmarshal %s: expected %v, got %v", tc.in, tc.want, float64(n))
		}
	}
}

func TestAssetDecodeLooseUpload(t *testing.T) {
	raw := `{"symbol": "AAPL", "holdings": "3", "currentPrice": 101.5, "CI": null, "sector": "Tech"}`
	var a Asset
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatal(err)
	}
	if a.Symbol != "AAPL" || float64(a.Holdings) != 3 || float64(a.CostInvested) != 0 {
		t.Fatalf("unexpected asset: %+v", a)
	}
}
