package enums

// ChangeType classifies an inventory ledger entry.
type ChangeType string

const (
	ChangeTypeManualAdjust  ChangeType = "manual_adjust"
	ChangeTypeOrderDeduct   ChangeType = "order_deduct"
	ChangeTypeReturnRestore ChangeType = "return_restore"
	ChangeTypeSync          ChangeType = "sync"
	ChangeTypeImport        ChangeType = "import"
)

var validChangeTypes = []ChangeType{
	ChangeTypeManualAdjust,
	ChangeTypeOrderDeduct,
	ChangeTypeReturnRestore,
	ChangeTypeSync,
	ChangeTypeImport,
}

func (c ChangeType) String() string { return string(c) }

func (c ChangeType) IsValid() bool { return contains(validChangeTypes, c) }

func ParseChangeType(value string) (ChangeType, error) {
	return parse(validChangeTypes, value, "change type")
}

// StockStatus is derived from an inventory row and never stored.
type StockStatus string

const (
	StockStatusNormal StockStatus = "normal"
	StockStatusLow    StockStatus = "low"
	StockStatusOut    StockStatus = "out"
)

var validStockStatuses = []StockStatus{StockStatusNormal, StockStatusLow, StockStatusOut}

func (s StockStatus) String() string { return string(s) }

func (s StockStatus) IsValid() bool { return contains(validStockStatuses, s) }

func ParseStockStatus(value string) (StockStatus, error) {
	return parse(validStockStatuses, value, "stock status")
}

// BatchOperation is the operator-facing verb of a batch adjustment.
type BatchOperation string

const (
	BatchOperationSet      BatchOperation = "set"
	BatchOperationIncrease BatchOperation = "increase"
	BatchOperationDecrease BatchOperation = "decrease"
)

var validBatchOperations = []BatchOperation{BatchOperationSet, BatchOperationIncrease, BatchOperationDecrease}

func (b BatchOperation) String() string { return string(b) }

func (b BatchOperation) IsValid() bool { return contains(validBatchOperations, b) }

func ParseBatchOperation(value string) (BatchOperation, error) {
	return parse(validBatchOperations, value, "batch operation")
}

// ChangeType maps the batch verb onto the ledger change type it records.
func (b BatchOperation) ChangeType() ChangeType {
	switch b {
	case BatchOperationSet:
		return ChangeTypeManualAdjust
	case BatchOperationDecrease:
		return ChangeTypeOrderDeduct
	default:
		return ChangeTypeReturnRestore
	}
}
