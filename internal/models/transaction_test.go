package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountJSON(t *testing.T) {
	t.Run("value_marshals_as_number", func(t *testing.T) {
		raw, err := json.Marshal(NewAmount(100.5, "USD"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(string(raw), `"value":100.5`) {
			t.Errorf("expected bare numeric value, got %s", raw)
		}
	})

	t.Run("unmarshals_quoted_and_bare", func(t *testing.T) {
		for _, payload := range []string{
			`{"value":100.5,"currency":"USD"}`,
			`{"value":"100.5","currency":"USD"}`,
		} {
			var amount Amount
			if err := json.Unmarshal([]byte(payload), &amount); err != nil {
				t.Fatalf("failed to parse %s: %v", payload, err)
			}
			if !amount.Value.Equal(decimal.NewFromFloat(100.5)) {
				t.Errorf("expected 100.5 from %s, got %s", payload, amount.Value)
			}
		}
	})
}

func TestTransactionSigned(t *testing.T) {
	income := Transaction{Income: true, Amount: NewAmount(40, "USD")}
	expense := Transaction{Income: false, Amount: NewAmount(40, "USD")}

	if !income.Signed().Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected +40, got %s", income.Signed())
	}
	if !expense.Signed().Equal(decimal.NewFromInt(-40)) {
		t.Errorf("expected -40, got %s", expense.Signed())
	}
}
