package enums

// Platform identifies the marketplace a channel is connected to.
type Platform string

const (
	PlatformPinduoduo         Platform = "pinduoduo"
	PlatformWechatMiniprogram Platform = "wechat_miniprogram"
)

var validPlatforms = []Platform{PlatformPinduoduo, PlatformWechatMiniprogram}

func (p Platform) String() string { return string(p) }

func (p Platform) IsValid() bool { return contains(validPlatforms, p) }

func ParsePlatform(value string) (Platform, error) {
	return parse(validPlatforms, value, "platform")
}

type ChannelStatus string

const (
	ChannelStatusConnected    ChannelStatus = "connected"
	ChannelStatusExpired      ChannelStatus = "expired"
	ChannelStatusDisconnected ChannelStatus = "disconnected"
)

var validChannelStatuses = []ChannelStatus{ChannelStatusConnected, ChannelStatusExpired, ChannelStatusDisconnected}

func (c ChannelStatus) String() string { return string(c) }

func (c ChannelStatus) IsValid() bool { return contains(validChannelStatuses, c) }

func ParseChannelStatus(value string) (ChannelStatus, error) {
	return parse(validChannelStatuses, value, "channel status")
}

type SyncMode string

const (
	SyncModeRealtime  SyncMode = "realtime"
	SyncModeScheduled SyncMode = "scheduled"
)

var validSyncModes = []SyncMode{SyncModeRealtime, SyncModeScheduled}

func (s SyncMode) String() string { return string(s) }

func (s SyncMode) IsValid() bool { return contains(validSyncModes, s) }

func ParseSyncMode(value string) (SyncMode, error) {
	return parse(validSyncModes, value, "sync mode")
}

// DeductOn decides which order event reduces stock.
type DeductOn string

const (
	DeductOnOrder   DeductOn = "order"
	DeductOnPayment DeductOn = "payment"
)

var validDeductOn = []DeductOn{DeductOnOrder, DeductOnPayment}

func (d DeductOn) String() string { return string(d) }

func (d DeductOn) IsValid() bool { return contains(validDeductOn, d) }

func ParseDeductOn(value string) (DeductOn, error) {
	return parse(validDeductOn, value, "deduct on")
}

type SyncTaskType string

const (
	SyncTaskTypeOrderTriggered SyncTaskType = "order_triggered"
	SyncTaskTypeScheduled      SyncTaskType = "scheduled"
	SyncTaskTypeManual         SyncTaskType = "manual"
)

var validSyncTaskTypes = []SyncTaskType{SyncTaskTypeOrderTriggered, SyncTaskTypeScheduled, SyncTaskTypeManual}

func (s SyncTaskType) String() string { return string(s) }

func (s SyncTaskType) IsValid() bool { return contains(validSyncTaskTypes, s) }

type SyncTaskStatus string

const (
	SyncTaskStatusPending    SyncTaskStatus = "pending"
	SyncTaskStatusProcessing SyncTaskStatus = "processing"
	SyncTaskStatusCompleted  SyncTaskStatus = "completed"
	SyncTaskStatusFailed     SyncTaskStatus = "failed"
)

var validSyncTaskStatuses = []SyncTaskStatus{
	SyncTaskStatusPending,
	SyncTaskStatusProcessing,
	SyncTaskStatusCompleted,
	SyncTaskStatusFailed,
}

func (s SyncTaskStatus) String() string { return string(s) }

func (s SyncTaskStatus) IsValid() bool { return contains(validSyncTaskStatuses, s) }

func ParseSyncTaskStatus(value string) (SyncTaskStatus, error) {
	return parse(validSyncTaskStatuses, value, "sync task status")
}
