package models

// Dual-Axis 报告模型：用户活动性与设备状态分开评估。
// 里程高对用户是好事（活跃），对设备却意味着磨损，所以两条轴不合并成一个分数。

// TrendDirection 周里程趋势（由调用方提供，不从里程推导）
type TrendDirection string

const (
	TrendIncrease TrendDirection = "increase"
	TrendStable   TrendDirection = "stable"
	TrendDecrease TrendDirection = "decrease"
)

// MobilityStatus 用户活动状态，从好到差：active > stable > declining > inactive
type MobilityStatus string

const (
	MobilityActive    MobilityStatus = "active"
	MobilityStable    MobilityStatus = "stable"
	MobilityDeclining MobilityStatus = "declining"
	MobilityInactive  MobilityStatus = "inactive"
)

// DeviceGrade 设备状态等级，A 最好
type DeviceGrade string

const (
	GradeA DeviceGrade = "A"
	GradeB DeviceGrade = "B"
	GradeC DeviceGrade = "C"
)

// UsageIntensity 设备使用强度（按用户周里程划分）
type UsageIntensity string

const (
	UsageLow    UsageIntensity = "low"
	UsageMedium UsageIntensity = "medium"
	UsageHigh   UsageIntensity = "high"
)

// DefaultDaysSinceLastCheck 没有点检记录时的默认经过天数
const DefaultDaysSinceLastCheck = 30

// StatusStyle 状态/等级的展示信息
type StatusStyle struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// MobilityStatusStyles 覆盖所有 MobilityStatus
var MobilityStatusStyles = map[MobilityStatus]StatusStyle{
	MobilityActive:    {Color: "green", Icon: "", Label: "활발"},
	MobilityStable:    {Color: "blue", Icon: "", Label: "안정"},
	MobilityDeclining: {Color: "yellow", Icon: "", Label: "감소 중"},
	MobilityInactive:  {Color: "red", Icon: "", Label: "비활동"},
}

// DeviceGradeStyles 覆盖所有 DeviceGrade
var DeviceGradeStyles = map[DeviceGrade]StatusStyle{
	GradeA: {Color: "green", Icon: "", Label: "양호"},
	GradeB: {Color: "yellow", Icon: "", Label: "점검 권장"},
	GradeC: {Color: "red", Icon: "", Label: "주의 필요"},
}

// AllMobilityStatuses 按从好到差排列
var AllMobilityStatuses = []MobilityStatus{MobilityActive, MobilityStable, MobilityDeclining, MobilityInactive}

// AllDeviceGrades 按从好到差排列
var AllDeviceGrades = []DeviceGrade{GradeA, GradeB, GradeC}

// UserStats 用户最近 7 天的出行统计
type UserStats struct {
	WeeklyKm         float64        `json:"weeklyKm"`
	PreviousWeeklyKm float64        `json:"previousWeeklyKm"`
	Trend            TrendDirection `json:"trend"`
	ActiveDays       int            `json:"activeDays"`
}

// DeviceStats 设备最近 30 天的维护统计
type DeviceStats struct {
	RecentRepairs         int     `json:"recentRepairs"`
	RecentSelfChecks      int     `json:"recentSelfChecks"`
	DaysSinceLastCheck    int     `json:"daysSinceLastCheck"`
	EstimatedCumulativeKm float64 `json:"estimatedCumulativeKm"`
}

// NewDeviceStats 用默认值（30 天未点检、累计 0km）构造 DeviceStats
func NewDeviceStats(recentRepairs, recentSelfChecks int) DeviceStats {
	return DeviceStats{
		RecentRepairs:      recentRepairs,
		RecentSelfChecks:   recentSelfChecks,
		DaysSinceLastCheck: DefaultDaysSinceLastCheck,
	}
}

// UserMobilityIndex 用户活动性指标
type UserMobilityIndex struct {
	Status        MobilityStatus `json:"status"`
	StatusColor   string         `json:"statusColor"`
	StatusIcon    string         `json:"statusIcon"`
	StatusLabel   string         `json:"statusLabel"`
	WeeklyKm      float64        `json:"weeklyKm"`
	WeeklyKmDelta float64        `json:"weeklyKmDelta"`
	Trend         TrendDirection `json:"trend"`
	ActiveDays    int            `json:"activeDays"`
	Evidence      string         `json:"evidence"`
}

// DeviceConditionIndex 设备状态指标
type DeviceConditionIndex struct {
	Grade              DeviceGrade    `json:"grade"`
	GradeColor         string         `json:"gradeColor"`
	GradeIcon          string         `json:"gradeIcon"`
	GradeLabel         string         `json:"gradeLabel"`
	CumulativeKm       float64        `json:"cumulativeKm"`
	RecentRepairs      int            `json:"recentRepairs"`
	RecentSelfChecks   int            `json:"recentSelfChecks"`
	DaysSinceLastCheck int            `json:"daysSinceLastCheck"`
	UsageIntensity     UsageIntensity `json:"usageIntensity"`
	Evidence           string         `json:"evidence"`
	Recommendation     string         `json:"recommendation"`
}

// DualAxisMetrics 两条轴的评估结果
type DualAxisMetrics struct {
	UserMobility    UserMobilityIndex    `json:"userMobility"`
	DeviceCondition DeviceConditionIndex `json:"deviceCondition"`
}

// LegacyMetadata Dual-Axis 之前报告文档里的扁平 metadata
type LegacyMetadata struct {
	WeeklyKm         float64 `json:"weeklyKm"`
	Trend            string  `json:"trend"`
	RecentRepairs    int     `json:"recentRepairs"`
	RecentSelfChecks int     `json:"recentSelfChecks"`
}
