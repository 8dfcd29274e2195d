package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a recurring position of a contract, billed once per month.
type Item struct {
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Quantity    decimal.Decimal `yaml:"quantity"`
	Initial     decimal.Decimal `yaml:"initial,omitempty"` // One-time setup fee, contract documents only
}

// Contract is a recurring billing agreement with one customer.
type Contract struct {
	ID      string     `yaml:"cid"`
	Name    string     `yaml:"name"`
	Company string     `yaml:"company,omitempty"`
	Items   []Item     `yaml:"items"`
	Start   time.Time  `yaml:"start"`
	End     *time.Time `yaml:"end,omitempty"`
	Email   string     `yaml:"email"`
	Address []string   `yaml:"address"`
}

// FieldError describes an invalid contract field.
type FieldError struct {
	ContractID string
	Field      string
	Message    string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("contract %q: invalid %s: %s", e.ContractID, e.Field, e.Message)
}

// Normalize fills defaults the YAML representation allows to omit.
func (c *Contract) Normalize() {
	for i := range c.Items {
		if c.Items[i].Quantity.IsZero() {
			c.Items[i].Quantity = decimal.NewFromInt(1)
		}
	}
}

// Contract ids name files and directories and are matched by file patterns.
const reservedIDChars = "./\\*?[]"

// ValidContractID reports whether id can name a contract.
func ValidContractID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.ContainsAny(id, reservedIDChars)
}

// Validate checks the fields every billing operation relies on.
func (c *Contract) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &FieldError{Field: "cid", Message: "is required"}
	}
	if !ValidContractID(c.ID) {
		return &FieldError{ContractID: c.ID, Field: "cid", Message: fmt.Sprintf("must not contain any of %q", reservedIDChars)}
	}
	if c.Start.IsZero() {
		return &FieldError{ContractID: c.ID, Field: "start", Message: "is required"}
	}
	if c.End != nil && c.End.Before(c.Start) {
		return &FieldError{ContractID: c.ID, Field: "end", Message: "is before start"}
	}
	if len(c.Items) == 0 {
		return &FieldError{ContractID: c.ID, Field: "items", Message: "at least one item is required"}
	}
	for i, item := range c.Items {
		if strings.TrimSpace(item.Description) == "" {
			return &FieldError{ContractID: c.ID, Field: fmt.Sprintf("items[%d].description", i), Message: "is required"}
		}
		if item.Price.IsNegative() {
			return &FieldError{ContractID: c.ID, Field: fmt.Sprintf("items[%d].price", i), Message: "must not be negative"}
		}
		if !item.Quantity.IsPositive() {
			return &FieldError{ContractID: c.ID, Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be positive"}
		}
	}
	return nil
}

// ActiveAt reports whether the contract runs at t: started on or before t and
// not ended before t.
func (c *Contract) ActiveAt(t time.Time) bool {
	if c.Start.After(t) {
		return false
	}
	return c.End == nil || !c.End.Before(t)
}

// MonthlyTotal is the gross amount billed per month.
func (c *Contract) MonthlyTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(item.Quantity))
	}
	return total.Round(2)
}

// InitialTotal is the sum of all one-time fees.
func (c *Contract) InitialTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Initial)
	}
	return total
}

// DisplayName is "Company, Name" or just the name.
func (c *Contract) DisplayName() string {
	name := c.Name
	if name == "" {
		name = "unknown"
	}
	if c.Company != "" {
		return c.Company + ", " + name
	}
	return name
}
