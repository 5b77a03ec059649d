package models

import "time"

// RepairCategory 수리 부위
type RepairCategory string

const (
	RepairDriveUnit         RepairCategory = "drive_unit"
	RepairElectronicControl RepairCategory = "electronic_control"
	RepairBrake             RepairCategory = "brake"
	RepairSeat              RepairCategory = "seat"
	RepairFootrest          RepairCategory = "footrest"
	RepairFrame             RepairCategory = "frame"
	RepairTireTube          RepairCategory = "tire_tube"
	RepairBattery           RepairCategory = "battery"
	RepairEtc               RepairCategory = "etc"
)

// RepairCategoryLabels 维修部位的展示名
var RepairCategoryLabels = map[RepairCategory]string{
	RepairDriveUnit:         "구동장치",
	RepairElectronicControl: "전자제어",
	RepairBrake:             "제동장치",
	RepairSeat:              "시트",
	RepairFootrest:          "발걸이",
	RepairFrame:             "프레임",
	RepairTireTube:          "타이어 | 튜브",
	RepairBattery:           "배터리",
	RepairEtc:               "기타",
}

// Repair 维修记录
type Repair struct {
	ID         string    `json:"id"`
	VehicleID  string    `json:"vehicleId"`
	RepairedAt time.Time `json:"repairedAt"`
	Price      int       `json:"price"`
	Type       string    `json:"type"` // accident / routine
	ShopLabel  string    `json:"shopLabel"`
	Problem    string    `json:"problem"`
	Action     string    `json:"action"`
	Categories []string  `json:"categories"`
}

// CategoryLabels 未知类别原样返回
func (r Repair) CategoryLabels() []string {
	labels := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		if l, ok := RepairCategoryLabels[RepairCategory(c)]; ok {
			labels = append(labels, l)
		} else {
			labels = append(labels, c)
		}
	}
	return labels
}
