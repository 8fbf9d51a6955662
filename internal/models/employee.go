package models

import "time"

type Employee struct {
	ID            uint       `gorm:"column:id;primaryKey" json:"id"`
	Name          string     `gorm:"column:name;type:text;not null" json:"name"`
	Specialty     string     `gorm:"column:specialty;type:text" json:"specialty"`
	HireDate      *time.Time `gorm:"column:hire_date;type:date" json:"hire_date"`
	Qualification string     `gorm:"column:qualification;type:text" json:"qualification"`

	// Free text, comma-separated by convention
	Courses          string `gorm:"column:courses;type:text" json:"courses"`
	Experience       string `gorm:"column:experience;type:text" json:"experience"`
	CertificatesText string `gorm:"column:certificates_text;type:text" json:"certificates_text"`

	// Relative path under the upload root, ex: "cv/resume_ab12cd34.pdf"
	CVFilename string `gorm:"column:cv_filename;type:text" json:"cv_filename"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	Files []EmployeeFile `gorm:"foreignKey:EmployeeID" json:"files"`
}

func (Employee) TableName() string { return "employees" }
