package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/utils"
)

type Property struct {
	ID        string    `gorm:"primary_key;size:64" json:"id"`
	Name      string    `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Code      string    `gorm:"index;size:50" json:"code"`
	Address   string    `gorm:"type:text" json:"address"`
	City      string    `gorm:"size:100" json:"city"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetPropertyById(ctx context.Context, id string) (*Property, error) {
	db := config.GetDB()

	var property Property
	if err := db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &property, nil
}
