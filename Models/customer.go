package Models

import (
	"gorm.io/gorm"
)

type Customer struct {
	gorm.Model
	Name      string `json:"name" gorm:"size:255;not null"`
	Phone     string `json:"phone" gorm:"size:32;not null"`
	Email     string `json:"email,omitempty" gorm:"size:255"`
	Address   string `json:"address,omitempty" gorm:"type:text"`
	IDDetails string `json:"id_details,omitempty" gorm:"size:255"`
	ImageURL  string `json:"image_url,omitempty" gorm:"size:500"`

	Projects []Project `json:"projects,omitempty" gorm:"foreignKey:CustomerID"`
}
