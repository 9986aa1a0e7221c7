package models

// Built-in investor classifications seeded on first start.
const (
	InvestorTypeAccredited = "Accredited Investor"
	InvestorTypeQC         = "Qualified Client"
	InvestorTypeQP         = "Qualified Purchaser"
)

// DefaultInvestorTypes lists the classifications seeded by the database layer.
var DefaultInvestorTypes = []string{
	InvestorTypeAccredited,
	InvestorTypeQC,
	InvestorTypeQP,
}

// InvestorType is a regulatory classification shared by users and offerings.
type InvestorType struct {
	BaseModel

	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

// OfferingTag is a free-form label attached to offerings.
type OfferingTag struct {
	BaseModel

	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}
