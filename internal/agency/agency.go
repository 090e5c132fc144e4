// Package agency defines the Agency record and the bootstrap seed sets.
//
// An agency's short name is its idempotency key: seeding inserts an agency
// only when no record with the same short name exists. The short name is
// stored exactly as configured.
package agency

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/formdb/internal/config"
)

// CollectionName is the MongoDB collection backing the Agency model.
const CollectionName = "agencies"

// DefaultLogo is the logo given to the production seed agency.
const DefaultLogo = "/logo192.png"

// Agency is a government agency that owns forms.
type Agency struct {
	ShortName   string   `bson:"shortName" json:"shortName" validate:"required"`
	FullName    string   `bson:"fullName" json:"fullName" validate:"required"`
	EmailDomain []string `bson:"emailDomain" json:"emailDomain" validate:"required,min=1,dive,required"`
	Logo        string   `bson:"logo" json:"logo" validate:"required"`
}

var validate = validator.New()

// Normalize trims whitespace and applies Unicode NFC to the descriptive
// fields and lowercases email domains. The short name is left untouched.
func Normalize(a Agency) Agency {
	clean := func(s string) string {
		return norm.NFC.String(strings.TrimSpace(s))
	}

	out := Agency{
		ShortName: a.ShortName,
		FullName:  clean(a.FullName),
		Logo:      clean(a.Logo),
	}
	if a.EmailDomain != nil {
		out.EmailDomain = make([]string, len(a.EmailDomain))
		for i, d := range a.EmailDomain {
			out.EmailDomain[i] = strings.ToLower(clean(d))
		}
	}
	return out
}

// Validate checks the record's struct tags.
func Validate(a Agency) error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid agency %q: %w", a.ShortName, err)
	}
	return nil
}

// FromInit builds the production seed agency. ok is false unless all three
// init values are present.
func FromInit(init config.InitAgency) (a Agency, ok bool) {
	if !init.Complete() {
		return Agency{}, false
	}
	return Normalize(Agency{
		ShortName:   init.ShortName,
		FullName:    init.FullName,
		EmailDomain: []string{init.Domain},
		Logo:        DefaultLogo,
	}), true
}

// DevAgencies returns the fixed records seeded into an ephemeral instance.
func DevAgencies() []Agency {
	return []Agency{
		{
			ShortName:   "govtech",
			FullName:    "Government Technology Agency",
			EmailDomain: []string{"data.gov.sg"},
			Logo:        "/public/modules/core/img/govtech.jpg",
		},
		{
			ShortName:   "was",
			FullName:    "Work Allocation Singapore",
			EmailDomain: []string{"was.gov.sg"},
			Logo:        "/public/modules/core/img/was.jpg",
		},
	}
}

// ShortNames lists the short names of agencies, in order.
func ShortNames(agencies []Agency) []string {
	names := make([]string, len(agencies))
	for i, a := range agencies {
		names[i] = a.ShortName
	}
	return names
}
