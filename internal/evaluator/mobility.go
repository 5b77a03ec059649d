package evaluator

import (
	"fmt"
	"math"

	"soori-welfare/internal/models"
)

// 周里程阈值（km）
const (
	activeWeeklyKm    = 30
	stableWeeklyKm    = 10
	decliningWeeklyKm = 3
)

// EvaluateUserMobility 根据周里程与趋势评估用户活动状态
func EvaluateUserMobility(stats models.UserStats) models.UserMobilityIndex {
	status := promote(baseMobilityStatus(stats.WeeklyKm, stats.Trend), stats.Trend)
	style := models.MobilityStatusStyles[status]
	delta := stats.WeeklyKm - stats.PreviousWeeklyKm

	return models.UserMobilityIndex{
		Status:        status,
		StatusColor:   style.Color,
		StatusIcon:    style.Icon,
		StatusLabel:   style.Label,
		WeeklyKm:      stats.WeeklyKm,
		WeeklyKmDelta: delta,
		Trend:         stats.Trend,
		ActiveDays:    stats.ActiveDays,
		Evidence:      mobilityEvidence(stats.WeeklyKm, delta),
	}
}

func baseMobilityStatus(weeklyKm float64, trend models.TrendDirection) models.MobilityStatus {
	switch {
	case weeklyKm >= activeWeeklyKm:
		return models.MobilityActive
	case weeklyKm >= stableWeeklyKm:
		return models.MobilityStable
	case weeklyKm >= decliningWeeklyKm:
		if trend == models.TrendDecrease {
			return models.MobilityDeclining
		}
		return models.MobilityStable
	default:
		return models.MobilityInactive
	}
}

// promote 上升趋势时提升一级，active 为上限
func promote(status models.MobilityStatus, trend models.TrendDirection) models.MobilityStatus {
	if trend != models.TrendIncrease {
		return status
	}
	switch status {
	case models.MobilityInactive:
		return models.MobilityDeclining
	case models.MobilityDeclining:
		return models.MobilityStable
	default:
		return models.MobilityActive
	}
}

// RoundTenth 保留一位小数，.x5 远离零进位（%.1f 对二进制中点取偶）
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func mobilityEvidence(weeklyKm, delta float64) string {
	km := RoundTenth(weeklyKm)
	switch {
	case weeklyKm == 0:
		return "이번 주 이동 기록이 없습니다. GPS 센서 연결을 확인해주세요."
	case delta > 0:
		return fmt.Sprintf("이번 주 %.1fkm 이동 (지난주 대비 +%.1fkm)", km, RoundTenth(delta))
	case delta < 0:
		return fmt.Sprintf("이번 주 %.1fkm 이동 (지난주 대비 %.1fkm)", km, RoundTenth(delta))
	default:
		return fmt.Sprintf("이번 주 %.1fkm 이동 (지난주와 동일)", km)
	}
}
