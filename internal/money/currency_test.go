package money

import "testing"

func TestIsCurrency(t *testing.T) {
	for _, code := range []string{"USD", "JPY", "ZWL", "AED"} {
		if !IsCurrency(code) {
			t.Errorf("expected %s to be a currency", code)
		}
	}
	for _, code := range []string{"", "US", "usd", "USDX"} {
		if IsCurrency(code) {
			t.Errorf("expected %q to be rejected", code)
		}
	}
}
