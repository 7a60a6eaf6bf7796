package enums

type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusCompleted,
}

func (r ReturnStatus) String() string { return string(r) }

func (r ReturnStatus) IsValid() bool { return contains(validReturnStatuses, r) }

func ParseReturnStatus(value string) (ReturnStatus, error) {
	return parse(validReturnStatuses, value, "return status")
}

type RiskLevel string

const (
	RiskLevelNormal RiskLevel = "normal"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

var validRiskLevels = []RiskLevel{RiskLevelNormal, RiskLevelMedium, RiskLevelHigh}

func (r RiskLevel) String() string { return string(r) }

func (r RiskLevel) IsValid() bool { return contains(validRiskLevels, r) }

type BlacklistStatus string

const (
	BlacklistStatusActive  BlacklistStatus = "active"
	BlacklistStatusRemoved BlacklistStatus = "removed"
)

func (b BlacklistStatus) String() string { return string(b) }

func (b BlacklistStatus) IsValid() bool {
	return contains([]BlacklistStatus{BlacklistStatusActive, BlacklistStatusRemoved}, b)
}

type ReturnType string

const (
	ReturnTypeRefundOnly      ReturnType = "refund_only"
	ReturnTypeReturnAndRefund ReturnType = "return_and_refund"
)

var validReturnTypes = []ReturnType{ReturnTypeRefundOnly, ReturnTypeReturnAndRefund}

func (r ReturnType) String() string { return string(r) }

func (r ReturnType) IsValid() bool { return contains(validReturnTypes, r) }

func ParseReturnType(value string) (ReturnType, error) {
	return parse(validReturnTypes, value, "return type")
}
