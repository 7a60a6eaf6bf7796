package enums

type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanPro        PlanType = "pro"
	PlanEnterprise PlanType = "enterprise"
)

var validPlanTypes = []PlanType{PlanFree, PlanPro, PlanEnterprise}

func (p PlanType) String() string { return string(p) }

func (p PlanType) IsValid() bool { return contains(validPlanTypes, p) }

func ParsePlanType(value string) (PlanType, error) {
	return parse(validPlanTypes, value, "plan")
}

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

var validBillingCycles = []BillingCycle{BillingCycleMonthly, BillingCycleYearly}

func (b BillingCycle) String() string { return string(b) }

func (b BillingCycle) IsValid() bool { return contains(validBillingCycles, b) }

func ParseBillingCycle(value string) (BillingCycle, error) {
	return parse(validBillingCycles, value, "billing cycle")
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusExpired,
	SubscriptionStatusCancelled,
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) IsValid() bool { return contains(validSubscriptionStatuses, s) }

type PaymentMethod string

const (
	PaymentMethodWechatPay PaymentMethod = "wechat_pay"
	PaymentMethodAlipay    PaymentMethod = "alipay"
)

var validPaymentMethods = []PaymentMethod{PaymentMethodWechatPay, PaymentMethodAlipay}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return contains(validPaymentMethods, p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse(validPaymentMethods, value, "payment method")
}

type PaymentType string

const (
	PaymentTypePurchase PaymentType = "purchase"
	PaymentTypeUpgrade  PaymentType = "upgrade"
	PaymentTypeRenewal  PaymentType = "renewal"
	PaymentTypeRefund   PaymentType = "refund"
)

func (p PaymentType) String() string { return string(p) }

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string { return string(p) }
