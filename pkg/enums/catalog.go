package enums

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

var validProductStatuses = []ProductStatus{ProductStatusActive, ProductStatusArchived}

func (p ProductStatus) String() string { return string(p) }

func (p ProductStatus) IsValid() bool { return contains(validProductStatuses, p) }

func ParseProductStatus(value string) (ProductStatus, error) {
	return parse(validProductStatuses, value, "product status")
}

type SKUStatus string

const (
	SKUStatusActive   SKUStatus = "active"
	SKUStatusFrozen   SKUStatus = "frozen"
	SKUStatusArchived SKUStatus = "archived"
)

var validSKUStatuses = []SKUStatus{SKUStatusActive, SKUStatusFrozen, SKUStatusArchived}

func (s SKUStatus) String() string { return string(s) }

func (s SKUStatus) IsValid() bool { return contains(validSKUStatuses, s) }

func ParseSKUStatus(value string) (SKUStatus, error) {
	return parse(validSKUStatuses, value, "sku status")
}

// SKUSort names the columns a SKU listing may be ordered by.
type SKUSort string

const (
	SKUSortCreatedAt SKUSort = "created_at"
	SKUSortName      SKUSort = "name"
	SKUSortCode      SKUSort = "sku_code"
	SKUSortStock     SKUSort = "total_quantity"
)

var validSKUSorts = []SKUSort{SKUSortCreatedAt, SKUSortName, SKUSortCode, SKUSortStock}

func (s SKUSort) String() string { return string(s) }

func (s SKUSort) IsValid() bool { return contains(validSKUSorts, s) }

func ParseSKUSort(value string) (SKUSort, error) {
	return parse(validSKUSorts, value, "sku sort")
}
