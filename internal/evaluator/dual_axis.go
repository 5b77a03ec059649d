// Package evaluator 实现 Dual-Axis 评估：用户活动性与设备状态各自独立打分。
// 所有函数都是纯函数，不做输入校验（负数等越界输入由调用方负责），可并发调用。
package evaluator

import "soori-welfare/internal/models"

// ComputeDualAxisMetrics 同时评估两条轴，userStats 同时用于设备的使用强度
func ComputeDualAxisMetrics(us models.UserStats, ds models.DeviceStats) models.DualAxisMetrics {
	return models.DualAxisMetrics{
		UserMobility:    EvaluateUserMobility(us),
		DeviceCondition: EvaluateDeviceCondition(ds, us),
	}
}

// AdaptLegacyMetadata 把旧版扁平 metadata 转成 Dual-Axis 结果，缺失字段取默认值。
// trend 原样透传，未知取值等同于 stable。
func AdaptLegacyMetadata(meta models.LegacyMetadata) models.DualAxisMetrics {
	us := models.UserStats{
		WeeklyKm: meta.WeeklyKm,
		Trend:    models.TrendDirection(meta.Trend),
	}
	ds := models.NewDeviceStats(meta.RecentRepairs, meta.RecentSelfChecks)
	return ComputeDualAxisMetrics(us, ds)
}

// ForReport 新格式报告用保存的完整统计计算，旧报告走适配器
func ForReport(report *models.WelfareReport) models.DualAxisMetrics {
	if report.Stats != nil {
		return ComputeDualAxisMetrics(report.Stats.User, report.Stats.Device)
	}
	return AdaptLegacyMetadata(report.Metadata.Legacy())
}
