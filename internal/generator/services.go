package generator

import "soori-welfare/internal/models"

var (
	serviceDisabledCallTaxi = models.ServiceRecommendation{
		Name:     "장애인 콜택시",
		Reason:   "최근 이동량이 줄어 외출 지원 서비스가 도움이 될 수 있습니다.",
		Category: models.ServiceCategoryMobility,
	}
	serviceVoucherTaxi = models.ServiceRecommendation{
		Name:     "바우처 택시",
		Reason:   "콜택시 대기 시간이 길 때 일반 택시를 할인된 요금으로 이용할 수 있습니다.",
		Category: models.ServiceCategoryMobility,
	}
	serviceChargingStations = models.ServiceRecommendation{
		Name:     "전동보장구 급속충전기 안내",
		Reason:   "이동 거리가 길어 외출 중 충전소 위치를 알아두면 좋습니다.",
		Category: models.ServiceCategoryMobility,
	}
	serviceRepairSubsidy = models.ServiceRecommendation{
		Name:     "전동보장구 수리비 지원",
		Reason:   "기기 점검이 필요한 상태입니다. 수리비 일부를 지원받을 수 있습니다.",
		Category: models.ServiceCategoryWelfare,
	}
	serviceAssistiveDevice = models.ServiceRecommendation{
		Name:     "장애인 보조기기 교부 사업",
		Reason:   "등록 장애인은 보조기기 교체 비용을 지원받을 수 있습니다.",
		Category: models.ServiceCategoryWelfare,
	}
	serviceLowIncomeRepair = models.ServiceRecommendation{
		Name:     "저소득층 보장구 수리비 추가 지원",
		Reason:   "기초생활수급자·차상위계층은 수리비 본인부담금을 추가로 감면받을 수 있습니다.",
		Category: models.ServiceCategoryWelfare,
	}
)

// recommendServices 先出行类，后福利类
func recommendServices(profile *models.UserProfile, m models.DualAxisMetrics) []models.ServiceRecommendation {
	services := []models.ServiceRecommendation{}

	switch m.UserMobility.Status {
	case models.MobilityInactive, models.MobilityDeclining:
		services = append(services, serviceDisabledCallTaxi, serviceVoucherTaxi)
	}
	if m.DeviceCondition.UsageIntensity == models.UsageHigh {
		services = append(services, serviceChargingStations)
	}

	if m.DeviceCondition.Grade != models.GradeA {
		services = append(services, serviceRepairSubsidy)
	}
	switch profile.RecipientType {
	case models.RecipientDisabled:
		services = append(services, serviceAssistiveDevice)
	case models.RecipientLowIncome:
		services = append(services, serviceLowIncomeRepair)
	}

	return services
}
