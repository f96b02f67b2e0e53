package Models

import (
	"gorm.io/gorm"
)

// Permission levels checked by middleware.Verify
const (
	PermissionUser  = 1
	PermissionAdmin = 2
)

type User struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:255;not null"`
	Mobile     string `json:"mobile" gorm:"size:16;not null;uniqueIndex"`
	Password   []byte `json:"-" gorm:"not null"`
	Permission int    `json:"permission" gorm:"not null;default:1"`

	// Company profile
	CompanyName       string `json:"company_name,omitempty" gorm:"size:255"`
	GSTIN             string `json:"gstin,omitempty" gorm:"size:15"`
	Address           string `json:"address,omitempty" gorm:"type:text"`
	DocumentURL       string `json:"document_url,omitempty" gorm:"size:500"`
	LogoURL           string `json:"logo_url,omitempty" gorm:"size:500"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty" gorm:"size:500"`
	UserPhotoURL      string `json:"user_photo_url,omitempty" gorm:"size:500"`

	CompanyDocuments []CompanyDocument `json:"company_documents,omitempty" gorm:"foreignKey:UserID"`
	CompanyImages    []CompanyImage    `json:"company_images,omitempty" gorm:"foreignKey:UserID"`
}

type CompanyDocument struct {
	gorm.Model
	Name   string `json:"name" gorm:"size:255;not null"`
	URL    string `json:"url" gorm:"size:500;not null"`
	Type   string `json:"type" gorm:"size:128"`
	UserID uint   `json:"user_id" gorm:"not null;index"`
}

type CompanyImage struct {
	gorm.Model
	URL     string `json:"url" gorm:"size:500;not null"`
	Caption string `json:"caption,omitempty" gorm:"size:255"`
	UserID  uint   `json:"user_id" gorm:"not null;index"`
}
