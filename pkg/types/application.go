package types

import "time"

type Institution struct {
	InstituteID string    `db:"institute_id" json:"instituteId"`
	Name        string    `db:"name" json:"name"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type InstituteSettings struct {
	InstituteID string    `db:"institute_id" json:"instituteId"`
	Courses     []string  `db:"courses" json:"courses"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type Application struct {
	ID            string         `db:"id" json:"id"`
	InstituteID   string         `db:"institute_id" json:"instituteId"`
	AcademicYear  string         `db:"academic_year" json:"academicYear"`
	Program       string         `db:"program" json:"program"`
	LeadID        *string        `db:"lead_id" json:"leadId,omitempty"`
	PersonalData  map[string]any `db:"personal_data" json:"personalData"`
	EducationData map[string]any `db:"education_data" json:"educationData"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Data returns the category's values.
func (a *Application) Data(category Category) map[string]any {
	if category == CategoryEducation {
		return a.EducationData
	}
	return a.PersonalData
}

// ApplicationFile records an uploaded document stored in object storage.
type ApplicationFile struct {
	ApplicationID string    `db:"application_id"`
	FieldName     string    `db:"field_name"`
	FileName      string    `db:"file_name"`
	MimeType      string    `db:"mime_type"`
	FileSizeBytes int64     `db:"file_size_bytes"`
	StorageKey    string    `db:"storage_key"`
	UploadedAt    time.Time `db:"uploaded_at"`
}
