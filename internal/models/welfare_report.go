package models

import "time"

// DefaultSupportedDistrict 报告未记录地区时使用的默认自治区
const DefaultSupportedDistrict = "성동구"

// Service categories stored on ServiceRecommendation.Category
const (
	ServiceCategoryMobility = "mobility"
	ServiceCategoryWelfare  = "welfare"
)

// ServiceRecommendation 推荐的福利/出行服务
type ServiceRecommendation struct {
	Name     string `json:"name"`
	Reason   string `json:"reason"`
	Link     string `json:"link,omitempty"`
	Category string `json:"category,omitempty"`
}

// ReportMetadata 报告文档中的扁平 metadata（旧版格式，始终写入）
type ReportMetadata struct {
	WeeklyKm          float64 `json:"weeklyKm"`
	Trend             string  `json:"trend"`
	RecentRepairs     int     `json:"recentRepairs"`
	RecentSelfChecks  int     `json:"recentSelfChecks"`
	SupportedDistrict string  `json:"supportedDistrict"`
}

// ApplyDefaults 填充缺省的 trend 与地区
func (m *ReportMetadata) ApplyDefaults() {
	if m.Trend == "" {
		m.Trend = string(TrendStable)
	}
	if m.SupportedDistrict == "" {
		m.SupportedDistrict = DefaultSupportedDistrict
	}
}

// Legacy 转成 Dual-Axis 适配器使用的格式
func (m ReportMetadata) Legacy() LegacyMetadata {
	return LegacyMetadata{
		WeeklyKm:         m.WeeklyKm,
		Trend:            m.Trend,
		RecentRepairs:    m.RecentRepairs,
		RecentSelfChecks: m.RecentSelfChecks,
	}
}

// ReportStats 新格式报告保存的完整输入统计
type ReportStats struct {
	User   UserStats   `json:"user"`
	Device DeviceStats `json:"device"`
}

// WelfareReport 用户福利报告（每个用户一份，重新生成时覆盖）
type WelfareReport struct {
	UserID     string                  `json:"userId"`
	Summary    string                  `json:"summary"`
	Risk       string                  `json:"risk"`
	Services   []ServiceRecommendation `json:"services"`
	Metadata   ReportMetadata          `json:"metadata"`
	Stats      *ReportStats            `json:"stats,omitempty"`
	IsFallback bool                    `json:"isFallback"`
	CreatedAt  time.Time               `json:"createdAt"`
}

var trendDisplay = map[string]string{
	string(TrendIncrease): "증가 추세 📈",
	string(TrendDecrease): "감소 추세 📉",
	string(TrendStable):   "안정 유지 ➡️",
}

var trendDescription = map[string]string{
	string(TrendIncrease): "최근 이동량이 증가하고 있습니다",
	string(TrendDecrease): "최근 이동량이 감소하고 있습니다",
	string(TrendStable):   "최근 7일간 이동량이 일정합니다",
}

// TrendDisplay 趋势的简短展示文本
func (r *WelfareReport) TrendDisplay() string {
	if s, ok := trendDisplay[r.Metadata.Trend]; ok {
		return s
	}
	return "데이터 없음"
}

// TrendDescription 趋势的说明文本
func (r *WelfareReport) TrendDescription() string {
	if s, ok := trendDescription[r.Metadata.Trend]; ok {
		return s
	}
	return "이동 데이터가 충분하지 않습니다"
}

// CategorizedServices 按类别拆分后的推荐服务
type CategorizedServices struct {
	ForMobility []ServiceRecommendation `json:"forMobility"`
	ForWelfare  []ServiceRecommendation `json:"forWelfare"`
}

// CategorizeServices welfare 类归入 ForWelfare，其余（包括未标注类别的）归入 ForMobility
func CategorizeServices(services []ServiceRecommendation) CategorizedServices {
	out := CategorizedServices{
		ForMobility: []ServiceRecommendation{},
		ForWelfare:  []ServiceRecommendation{},
	}
	for _, s := range services {
		if s.Category == ServiceCategoryWelfare {
			out.ForWelfare = append(out.ForWelfare, s)
		} else {
			out.ForMobility = append(out.ForMobility, s)
		}
	}
	return out
}

// ReportView GET /welfare/reports/{userId} 的响应：报告本身加上按需计算的展示数据
type ReportView struct {
	*WelfareReport
	DualAxis            DualAxisMetrics     `json:"dualAxis"`
	CategorizedServices CategorizedServices `json:"categorizedServices"`
	TrendDisplay        string              `json:"trendDisplay"`
	TrendDescription    string              `json:"trendDescription"`
}

// NewReportView metrics 由调用方计算（新格式用保存的统计，旧报告走适配器）
func NewReportView(report *WelfareReport, metrics DualAxisMetrics) ReportView {
	return ReportView{
		WelfareReport:       report,
		DualAxis:            metrics,
		CategorizedServices: CategorizeServices(report.Services),
		TrendDisplay:        report.TrendDisplay(),
		TrendDescription:    report.TrendDescription(),
	}
}
