package common

import (
	"ems/src/db"
	"ems/src/models"
	"ems/src/types"
)

type StatusCount struct {
	Status types.ApplicationStatus `json:"status"`
	Count  int64                   `json:"count"`
}

type DashboardSummary struct {
	Applications []StatusCount `json:"applications"`
	Exhibitions  int64         `json:"exhibitions,omitempty"`
	Stalls       int64         `json:"stalls,omitempty"`
	Booked       int64         `json:"booked,omitempty"`
	Unread       int64         `json:"unread_notifications"`
	Favorites    int64         `json:"favorites,omitempty"`
}

// BuildDashboard aggregates the caller's view of the marketplace. Each
// role sees only the slice it acts on; counts are computed live.
func BuildDashboard(userId uint, role string) (*DashboardSummary, error) {
	conn := db.GetDb()
	summary := DashboardSummary{}
	applications := conn.Model(&models.StallApplication{})
	switch role {
	case types.ROLE_ORGANISER:
		applications = applications.
			Joins("JOIN exhibitions ON exhibitions.id = stall_applications.exhibition_id").
			Where("exhibitions.organiser_id = ?", userId)
		if err := conn.Model(&models.Exhibition{}).Where("organiser_id = ?", userId).Count(&summary.Exhibitions).Error; err != nil {
			return nil, err
		}
	case types.ROLE_BRAND:
		applications = applications.Where("brand_id = ?", userId)
		if err := conn.
			Model(&models.StallApplication{}).
			Where("brand_id = ? AND status = ?", userId, types.APPLICATION_BOOKED).
			Count(&summary.Booked).Error; err != nil {
			return nil, err
		}
	case types.ROLE_MANAGER:
		if err := conn.Model(&models.Exhibition{}).Count(&summary.Exhibitions).Error; err != nil {
			return nil, err
		}
		if err := conn.Model(&models.Stall{}).Count(&summary.Stalls).Error; err != nil {
			return nil, err
		}
	case types.ROLE_SHOPPER:
		if err := conn.Model(&models.Favorite{}).Where("shopper_id = ?", userId).Count(&summary.Favorites).Error; err != nil {
			return nil, err
		}
	}
	if role != types.ROLE_SHOPPER {
		if err := applications.
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&summary.Applications).Error; err != nil {
			return nil, err
		}
	}
	if err := conn.
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&summary.Unread).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}
