package evaluator

import (
	"fmt"
	"strings"

	"soori-welfare/internal/models"
)

// 使用强度阈值（周里程 km）
const (
	highUsageWeeklyKm   = 50
	mediumUsageWeeklyKm = 20
)

// 风险分数：越低越好
const (
	riskPerRepair          = 20
	riskNoSelfCheck        = 15
	riskCheckOverdue60     = 20
	riskCheckOverdue30     = 10
	riskHighUsageUnchecked = 15

	gradeAMaxRisk = 10
	gradeBMaxRisk = 30
)

const evidenceSeparator = " · "

// UsageIntensityFor 按用户周里程划分设备使用强度
func UsageIntensityFor(weeklyKm float64) models.UsageIntensity {
	switch {
	case weeklyKm >= highUsageWeeklyKm:
		return models.UsageHigh
	case weeklyKm >= mediumUsageWeeklyKm:
		return models.UsageMedium
	default:
		return models.UsageLow
	}
}

// RiskScore 设备风险分数，只用于推导等级
func RiskScore(ds models.DeviceStats, usage models.UsageIntensity) int {
	score := ds.RecentRepairs * riskPerRepair

	if ds.RecentSelfChecks == 0 {
		score += riskNoSelfCheck
	}

	if ds.DaysSinceLastCheck > 60 {
		score += riskCheckOverdue60
	} else if ds.DaysSinceLastCheck > 30 {
		score += riskCheckOverdue30
	}

	// 与未点检的惩罚叠加
	if usage == models.UsageHigh && ds.RecentSelfChecks == 0 {
		score += riskHighUsageUnchecked
	}

	return score
}

// GradeFor 风险分数对应的等级
func GradeFor(score int) models.DeviceGrade {
	switch {
	case score <= gradeAMaxRisk:
		return models.GradeA
	case score <= gradeBMaxRisk:
		return models.GradeB
	default:
		return models.GradeC
	}
}

// EvaluateDeviceCondition 评估设备状态。使用强度取自用户统计而非设备记录。
func EvaluateDeviceCondition(ds models.DeviceStats, us models.UserStats) models.DeviceConditionIndex {
	usage := UsageIntensityFor(us.WeeklyKm)
	grade := GradeFor(RiskScore(ds, usage))
	style := models.DeviceGradeStyles[grade]

	return models.DeviceConditionIndex{
		Grade:              grade,
		GradeColor:         style.Color,
		GradeIcon:          style.Icon,
		GradeLabel:         style.Label,
		CumulativeKm:       ds.EstimatedCumulativeKm,
		RecentRepairs:      ds.RecentRepairs,
		RecentSelfChecks:   ds.RecentSelfChecks,
		DaysSinceLastCheck: ds.DaysSinceLastCheck,
		UsageIntensity:     usage,
		Evidence:           deviceEvidence(ds, usage),
		Recommendation:     recommendation(grade, usage, ds.RecentRepairs),
	}
}

func recommendation(grade models.DeviceGrade, usage models.UsageIntensity, recentRepairs int) string {
	switch grade {
	case models.GradeA:
		return "현재 상태가 양호합니다. 정기 점검을 유지해주세요."
	case models.GradeB:
		if usage == models.UsageHigh {
			return "사용량이 많습니다. 배터리와 타이어 상태를 점검해주세요."
		}
		return "정기 자가점검을 권장합니다."
	default:
		if recentRepairs > 0 {
			return "최근 수리 이력이 있습니다. 전문 점검을 받아보세요."
		}
		return "오랜 기간 점검이 없었습니다. 안전을 위해 점검을 받아주세요."
	}
}

func deviceEvidence(ds models.DeviceStats, usage models.UsageIntensity) string {
	parts := make([]string, 0, 3)
	if ds.RecentRepairs > 0 {
		parts = append(parts, fmt.Sprintf("최근 30일 수리 %d회", ds.RecentRepairs))
	}
	if ds.RecentSelfChecks > 0 {
		parts = append(parts, fmt.Sprintf("자가점검 %d회 완료", ds.RecentSelfChecks))
	} else {
		parts = append(parts, "최근 자가점검 기록 없음")
	}
	if usage == models.UsageHigh {
		parts = append(parts, "사용량 높음")
	}
	return strings.Join(parts, evidenceSeparator)
}
