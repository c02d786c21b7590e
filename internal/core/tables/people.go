package tables

import (
	"github.com/JonMunkholm/AssetViewer/internal/core"
	"github.com/JonMunkholm/AssetViewer/internal/dump"
)

// Column positions in the `customer` table. The row is far wider than this;
// the company name sits at position 50 and is missing on older dumps.
const (
	customerColID        = 0
	customerColFirstName = 6
	customerColLastName  = 8
	customerColCompany   = 50
)

// Column positions in the `engineer` table.
const (
	engineerColID        = 0
	engineerColFirstName = 5
	engineerColLastName  = 7
)

func init() {
	registerCustomers()
	registerEngineers()
}

func registerCustomers() {
	core.Register(core.TableDefinition{
		Key:       "customers",
		Table:     "customer",
		Label:     "Customers",
		MinFields: customerColLastName + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutCustomer(t.Field(customerColID), core.Customer{
				Name:        core.DisplayName(t.Field(customerColFirstName), t.Field(customerColLastName)),
				CompanyName: t.Field(customerColCompany),
			})
		},
	})
}

func registerEngineers() {
	core.Register(core.TableDefinition{
		Key:       "engineers",
		Table:     "engineer",
		Label:     "Engineers",
		MinFields: engineerColLastName + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutEngineer(t.Field(engineerColID),
				core.DisplayName(t.Field(engineerColFirstName), t.Field(engineerColLastName)))
		},
	})
}
