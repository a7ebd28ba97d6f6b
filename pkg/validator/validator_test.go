package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type priced struct {
	Name  string           `json:"name" validate:"required"`
	Price *decimal.Decimal `json:"price" validate:"required,nonneg_decimal"`
	Raw   string           `json:"raw" validate:"omitempty,nonneg_decimal"`
	Owner uuid.UUID        `json:"owner" validate:"uuid_required"`
}

func TestValidateStruct(t *testing.T) {
	ok := decimal.RequireFromString("29.99")
	neg := decimal.RequireFromString("-1")

	tests := []struct {
		name   string
		in     priced
		fields []string
	}{
		{"valid", priced{Name: "Lamp", Price: &ok, Raw: "0", Owner: uuid.New()}, nil},
		{"missing name and price", priced{Owner: uuid.New()}, []string{"name", "price"}},
		{"negative price", priced{Name: "Lamp", Price: &neg, Owner: uuid.New()}, []string{"price"}},
		{"bad raw decimal", priced{Name: "Lamp", Price: &ok, Raw: "abc", Owner: uuid.New()}, []string{"raw"}},
		{"nil owner", priced{Name: "Lamp", Price: &ok}, []string{"owner"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.in)
			if len(errs) != len(tt.fields) {
				t.Fatalf("expected %d errors, got %d: %+v", len(tt.fields), len(errs), errs)
			}
			for i, f := range tt.fields {
				if errs[i].FailedField != f {
					t.Errorf("error %d: expected field %q, got %q", i, f, errs[i].FailedField)
				}
			}
		})
	}
}
