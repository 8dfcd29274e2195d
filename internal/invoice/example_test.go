package invoice_test

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/invoice"
	"billing/pkg/models"
)

// Example builds a quarterly invoice from a contract's recurring items.
func Example() {
	contract := &models.Contract{
		ID:    "1000",
		Name:  "Max Mustermann",
		Start: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
		Items: []models.Item{
			{Description: "Webhosting", Price: decimal.RequireFromString("50.21"), Quantity: decimal.NewFromInt(1)},
			{Description: "Domain", Price: decimal.RequireFromString("5.00"), Quantity: decimal.NewFromInt(2)},
		},
	}

	generator := invoice.NewGenerator(decimal.NewFromInt(19), "02.01.2006")
	supplier := invoice.PeriodLines{Period: invoice.Period{Year: 2019, Month: time.October, Months: 3}}

	inv, err := generator.Generate(contract, supplier, time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(inv.ID)
	fmt.Println(inv.Period)
	for _, line := range inv.Items {
		fmt.Printf("%d %s %s x %s = %s\n", line.Item, line.Description, line.Quantity, line.Price.StringFixed(2), line.Subtotal.StringFixed(2))
	}
	fmt.Printf("net %s vat %s gross %s\n", inv.TotalNet.StringFixed(2), inv.TotalVAT.StringFixed(2), inv.TotalGross.StringFixed(2))
	// Output:
	// 1000.2019.10-2019.12
	// 01.10.2019 - 31.12.2019
	// 1 Webhosting 3 x 50.21 = 150.63
	// 2 Domain 6 x 5.00 = 30.00
	// net 151.79 vat 28.84 gross 180.63
}

// ExampleGenerator_Build shows the skip condition for contracts without lines.
func ExampleGenerator_Build() {
	contract := &models.Contract{ID: "1001"}
	generator := invoice.NewGenerator(decimal.NewFromInt(19), "")

	_, err := generator.Build(contract, "1001.2019.Q4", nil, time.Time{}, time.Time{}, time.Now())
	fmt.Println(err)
	// Output:
	// invoice 1001.2019.Q4: no billable lines for contract 1001
}
