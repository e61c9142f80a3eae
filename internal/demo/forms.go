// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package demo

import (
	"database/sql"
	"fmt"
	"net/http"

	formset "github.com/olegiv/formset-go"
	"github.com/olegiv/formset-go/forms"
	"github.com/olegiv/formset-go/selectize"
	"github.com/olegiv/formset-go/upload"
)

// NewCountySource builds the autocomplete source behind the county field,
// backed by the seeded counties table.
func NewCountySource(db *sql.DB) (*selectize.SQLSource, error) {
	return selectize.NewSQLSource(db, selectize.SQLConfig{
		Table:       "counties",
		LabelColumn: "name",
	})
}

// AddressForm declares the demo's address form: recipient, postal code and
// city with length caps, plus a searchable county field.
func AddressForm(counties selectize.Searcher) *forms.Form {
	return forms.Must("address",
		forms.Field{Name: "recipient", Label: "Recipient", Kind: forms.KindText, Required: true, MaxLength: 100},
		forms.Field{Name: "postal_code", Label: "Postal Code", Kind: forms.KindText, Required: true, MaxLength: 8},
		forms.Field{Name: "city", Label: "City", Kind: forms.KindText, Required: true, MaxLength: 50},
		forms.Field{
			Name:     "county",
			Label:    "County",
			Kind:     forms.KindSelectize,
			Source:   counties,
			HelpText: "Start typing to search counties, e.g. *Alameda*.",
		},
	)
}

// ContactForm declares the second form of the collection so the demo
// exercises per-form error aggregation.
func ContactForm() *forms.Form {
	return forms.Must("contact",
		forms.Field{Name: "email", Label: "Email", Kind: forms.KindEmail, Required: true},
		forms.Field{Name: "phone", Label: "Phone", Kind: forms.KindText, MaxLength: 20},
	)
}

// UploadForm declares the standalone upload demo. The form is unnamed, so
// submissions arrive under the default key.
func UploadForm() *forms.Form {
	return forms.Must("",
		forms.Field{Name: "title", Label: "Title", Kind: forms.KindText, Required: true, MaxLength: 100},
		forms.Field{
			Name:     "attachment",
			Label:    "Attachment",
			Kind:     forms.KindFile,
			Required: true,
			HelpText: "Images get a preview; everything else shows a type icon.",
		},
	)
}

// promoteFiles returns a post-validation hook moving every submitted file
// reference of the given forms out of the temp area into destDir.
func promoteFiles(receiver *upload.Receiver, destDir string, declared ...*forms.Form) func(*http.Request, map[string]any) error {
	return func(r *http.Request, data map[string]any) error {
		for _, form := range declared {
			key := form.Name()
			if key == "" {
				key = formset.DefaultFormKey
			}
			sub, _ := data[key].(map[string]any)
			for _, field := range form.Fields() {
				if field.Kind != forms.KindFile {
					continue
				}
				ref, _ := sub[field.Name].(map[string]any)
				signed, _ := ref["upload_temp_name"].(string)
				if signed == "" {
					continue
				}
				promoted, err := receiver.Promote(signed, destDir)
				if err != nil {
					return fmt.Errorf("promoting %s.%s: %w", key, field.Name, err)
				}
				ref["name"] = promoted
			}
		}
		return nil
	}
}
