package models

import "time"

// EmployeeFile is metadata for one stored attachment. Filename is the path
// relative to the upload root and must stay inside the owning employee's
// subdirectory. Rows are immutable after creation except for Label.
type EmployeeFile struct {
	ID         uint   `gorm:"column:id;primaryKey" json:"id"`
	EmployeeID uint   `gorm:"column:employee_id;not null;index" json:"employee_id"`
	Filename   string `gorm:"column:filename;type:text;not null" json:"filename"`
	Label      string `gorm:"column:label;type:text" json:"label"`

	UploadedAt time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`
}

func (EmployeeFile) TableName() string { return "employee_files" }
