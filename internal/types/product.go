package types

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Description string     `gorm:"column:description" json:"description"`
	OwnerTeamID *uuid.UUID `gorm:"column:owner_team_id" json:"owner_team_id"`
	OwnerTeam   *Team      `gorm:"foreignKey:OwnerTeamID;references:ID" json:"-"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
