package agency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formdb/internal/config"
)

func TestNormalize_NFC(t *testing.T) {
	composed := Agency{FullName: "Caf\u00e9 Agency"}
	decomposed := Agency{FullName: "Cafe\u0301 Agency"}

	assert.NotEqual(t, composed.FullName, decomposed.FullName)
	assert.Equal(t, Normalize(composed).FullName, Normalize(decomposed).FullName)
}

func TestNormalize_KeepsShortNameVerbatim(t *testing.T) {
	for _, name := range []string{" ogp ", "cafe\u0301", "OGP"} {
		assert.Equal(t, name, Normalize(Agency{ShortName: name}).ShortName)
	}
}

func TestNormalize_TrimsAndLowercasesDomains(t *testing.T) {
	got := Normalize(Agency{
		ShortName:   "  govtech ",
		FullName:    "Government Technology Agency\n",
		EmailDomain: []string{" Data.Gov.SG "},
		Logo:        "/logo.png",
	})

	assert.Equal(t, "  govtech ", got.ShortName)
	assert.Equal(t, "Government Technology Agency", got.FullName)
	assert.Equal(t, []string{"data.gov.sg"}, got.EmailDomain)
}

func TestNormalize_DoesNotAlias(t *testing.T) {
	in := Agency{ShortName: "a", EmailDomain: []string{"A.gov.sg"}}
	out := Normalize(in)
	out.EmailDomain[0] = "changed"
	assert.Equal(t, "A.gov.sg", in.EmailDomain[0])
}

func TestValidate(t *testing.T) {
	for _, a := range DevAgencies() {
		require.NoError(t, Validate(a), a.ShortName)
	}

	tests := []struct {
		name string
		in   Agency
	}{
		{"missing short name", Agency{FullName: "X", EmailDomain: []string{"x.gov.sg"}, Logo: "/x.png"}},
		{"missing full name", Agency{ShortName: "x", EmailDomain: []string{"x.gov.sg"}, Logo: "/x.png"}},
		{"no domains", Agency{ShortName: "x", FullName: "X", Logo: "/x.png"}},
		{"empty domain", Agency{ShortName: "x", FullName: "X", EmailDomain: []string{""}, Logo: "/x.png"}},
		{"missing logo", Agency{ShortName: "x", FullName: "X", EmailDomain: []string{"x.gov.sg"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.in))
		})
	}
}

func TestValidate_AcceptsNonFQDNDomains(t *testing.T) {
	for _, domain := range []string{"localhost", "agency", "my_agency.gov.sg"} {
		a := Agency{ShortName: "ogp", FullName: "Open Government Products", EmailDomain: []string{domain}, Logo: DefaultLogo}
		assert.NoError(t, Validate(a), domain)
	}
}

func TestFromInit(t *testing.T) {
	a, ok := FromInit(config.InitAgency{Domain: "tech.gov.sg", ShortName: "tech", FullName: "Tech Agency"})
	require.True(t, ok)
	assert.Equal(t, Agency{
		ShortName:   "tech",
		FullName:    "Tech Agency",
		EmailDomain: []string{"tech.gov.sg"},
		Logo:        DefaultLogo,
	}, a)

	a, ok = FromInit(config.InitAgency{Domain: "tech.gov.sg", ShortName: "cafe\u0301", FullName: "Tech Agency"})
	require.True(t, ok)
	assert.Equal(t, "cafe\u0301", a.ShortName)

	_, ok = FromInit(config.InitAgency{ShortName: "tech", FullName: "Tech Agency"})
	assert.False(t, ok)
}

func TestDevAgencies(t *testing.T) {
	assert.Equal(t, []string{"govtech", "was"}, ShortNames(DevAgencies()))

	// Each call returns a fresh slice.
	first := DevAgencies()
	first[0].ShortName = "mutated"
	assert.Equal(t, "govtech", DevAgencies()[0].ShortName)
}
