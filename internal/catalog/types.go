package catalog

// Product holds the report fields extracted from one catalog result.
// Every field is optional; the catalog may omit any of them and an
// absent value is kept as the empty string.
type Product struct {
	Code                   string `json:"code"`
	Manufacturer           string `json:"manufacturer"`
	ManufacturerPartNumber string `json:"manufacturer_part_number"`
	Package                string `json:"package"`
	Description            string `json:"description"`
	Stock                  string `json:"stock"`
	PageURL                string `json:"page_url"`
}

// Status classifies a lookup.
type Status int

const (
	// StatusNotFound covers no match, malformed responses and transport failures alike.
	StatusNotFound Status = iota
	// StatusFound means the catalog returned a product.
	StatusFound
)

func (s Status) String() string {
	if s == StatusFound {
		return "found"
	}
	return "not_found"
}

// Outcome is the result of looking up a single identifier.
type Outcome struct {
	Identifier string
	Status     Status
	// Product is set only when Status is StatusFound.
	Product *Product
	// Err records why a NotFound outcome happened. Informational only.
	Err error
}

// Found reports whether the outcome resolved to a product.
func (o Outcome) Found() bool {
	return o.Status == StatusFound && o.Product != nil
}

// NewFound builds a Found outcome.
func NewFound(identifier string, product Product) Outcome {
	return Outcome{Identifier: identifier, Status: StatusFound, Product: &product}
}

// NewNotFound builds a NotFound outcome with an optional reason.
func NewNotFound(identifier string, reason error) Outcome {
	return Outcome{Identifier: identifier, Status: StatusNotFound, Err: reason}
}
