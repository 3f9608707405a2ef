package models

// QueryCategory classifies a curated sample or knowledge document into one of
// the supported BFSI service areas.
type QueryCategory string

const (
	CategoryLoanEligibility   QueryCategory = "loan_eligibility"
	CategoryApplicationStatus QueryCategory = "application_status"
	CategoryEMIDetails        QueryCategory = "emi_details"
	CategoryInterestRates     QueryCategory = "interest_rates"
	CategoryPayments          QueryCategory = "payments"
	CategoryTransactions      QueryCategory = "transactions"
	CategoryAccountSupport    QueryCategory = "account_support"
	CategoryCustomerService   QueryCategory = "customer_service"
)

// AllCategories lists every supported query category.
func AllCategories() []QueryCategory {
	return []QueryCategory{
		CategoryLoanEligibility,
		CategoryApplicationStatus,
		CategoryEMIDetails,
		CategoryInterestRates,
		CategoryPayments,
		CategoryTransactions,
		CategoryAccountSupport,
		CategoryCustomerService,
	}
}

// CuratedSample is a pre-approved instruction/response pair used for Tier 1
// lookup. Samples are immutable once loaded; the Embedding field is computed
// at startup and cached for the process lifetime.
type CuratedSample struct {
	Instruction string        `json:"instruction"`
	Context     string        `json:"context,omitempty"`
	Response    string        `json:"response"`
	Category    QueryCategory `json:"category"`

	// Embedding of the instruction text. Populated by the corpus loader,
	// never serialized back out.
	Embedding []float64 `json:"-"`
}
