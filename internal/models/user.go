package models

// RecipientType 복지 수급 유형
type RecipientType string

const (
	RecipientGeneral   RecipientType = "general"
	RecipientDisabled  RecipientType = "disabled"
	RecipientLowIncome RecipientType = "lowIncome"
)

// UserProfile 生成报告需要的用户信息
type UserProfile struct {
	UserID            string        `json:"userId"`
	Name              string        `json:"name"`
	RecipientType     RecipientType `json:"recipientType"`
	SupportedDistrict string        `json:"supportedDistrict"`
}
