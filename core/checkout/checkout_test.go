package checkout

import (
	"testing"

	"github.com/sproutbox/api/validate"
)

func TestCentsValue(t *testing.T) {
	cases := []struct {
		cents int
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1200, "12.00"},
		{1999, "19.99"},
	}

	for _, c := range cases {
		if got := centsValue(c.cents); got != c.want {
			t.Errorf("centsValue(%d) = %q, want %q", c.cents, got, c.want)
		}
	}
}

func TestIntentValidation(t *testing.T) {
	ok := Intent{
		Name:       "Jo Bloom",
		Line1:      "12 Garden Lane",
		City:       "Leiden",
		PostalCode: "2311GJ",
		Country:    "NL",
	}
	if err := validate.Check(ok); err != nil {
		t.Fatalf("valid intent rejected: %v", err)
	}

	missing := ok
	missing.Line1 = ""
	if err := validate.Check(missing); err == nil {
		t.Fatal("intent without an address line must be rejected")
	}

	badCountry := ok
	badCountry.Country = "Netherlands"
	if err := validate.Check(badCountry); err == nil {
		t.Fatal("country must be a two letter code")
	}
}
