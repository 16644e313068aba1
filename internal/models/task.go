package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Status      string          `gorm:"not null;default:'To Do'"`
	DueDate     *datatypes.Date `gorm:"type:date"`
	ProjectID   uint            `gorm:"not null;index"`
	AssignedTo  *uint           `gorm:"index"`

	// Relationships
	Project  Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User   `gorm:"foreignKey:AssignedTo;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
