package models

import "time"

// SelfCheck 自我点检问卷（true 表示存在该问题）
type SelfCheck struct {
	ID                   string    `json:"id"`
	VehicleID            string    `json:"vehicleId"`
	MotorNoise           bool      `json:"motorNoise"`
	AbnormalSpeed        bool      `json:"abnormalSpeed"`
	BatteryBlinking      bool      `json:"batteryBlinking"`
	ChargingNotStart     bool      `json:"chargingNotStart"`
	BatteryDischargeFast bool      `json:"batteryDischargeFast"`
	IncompleteCharging   bool      `json:"incompleteCharging"`
	BreakDelay           bool      `json:"breakDelay"`
	BreakPadIssue        bool      `json:"breakPadIssue"`
	TubePunctureFrequent bool      `json:"tubePunctureFrequent"`
	TireWearFrequent     bool      `json:"tireWearFrequent"`
	SeatUnstable         bool      `json:"seatUnstable"`
	SeatCoverIssue       bool      `json:"seatCoverIssue"`
	FootRestLoose        bool      `json:"footRestLoose"`
	AntislipWorn         bool      `json:"antislipWorn"`
	FrameNoise           bool      `json:"frameNoise"`
	FrameCrack           bool      `json:"frameCrack"`
	CreatedAt            time.Time `json:"createdAt"`
}

// FlaggedItems 返回被勾选的问题项（按问卷顺序）
func (s SelfCheck) FlaggedItems() []string {
	items := []struct {
		on    bool
		label string
	}{
		{s.MotorNoise, "모터 소음"},
		{s.AbnormalSpeed, "속도 이상"},
		{s.BatteryBlinking, "배터리 표시등 깜빡임"},
		{s.ChargingNotStart, "충전 안 됨"},
		{s.BatteryDischargeFast, "배터리 빠른 방전"},
		{s.IncompleteCharging, "완충 안 됨"},
		{s.BreakDelay, "브레이크 지연"},
		{s.BreakPadIssue, "브레이크 패드 문제"},
		{s.TubePunctureFrequent, "잦은 튜브 펑크"},
		{s.TireWearFrequent, "타이어 마모"},
		{s.SeatUnstable, "시트 흔들림"},
		{s.SeatCoverIssue, "시트 커버 손상"},
		{s.FootRestLoose, "발걸이 헐거움"},
		{s.AntislipWorn, "미끄럼 방지 마모"},
		{s.FrameNoise, "프레임 소음"},
		{s.FrameCrack, "프레임 균열"},
	}
	flagged := []string{}
	for _, it := range items {
		if it.on {
			flagged = append(flagged, it.label)
		}
	}
	return flagged
}
