package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyValidation(t *testing.T) {
	validate, translator := NewValidator()

	type payment struct {
		Amount *decimal.Decimal `json:"amount" validate:"omitnil,gte=0,money"`
	}

	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "whole", amount: "3000"},
		{name: "two decimals", amount: "49.5"},
		{name: "cents", amount: "0.01"},
		{name: "largest", amount: "9999999999.99"},
		{name: "sub cent", amount: "0.005", wantErr: true},
		{name: "three decimals", amount: "1500.555", wantErr: true},
		{name: "too large", amount: "10000000000", wantErr: true},
		{name: "way too large", amount: "1e12", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			err := validate.Struct(payment{Amount: &amount})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, moneyTag, verrs[0].Tag())
			assert.Equal(t, moneyText, verrs[0].Translate(translator))
		})
	}

	assert.NoError(t, validate.Struct(payment{}))
}
