package employee

import (
	"time"

	"github.com/shopspring/decimal"

	"ems/internal/domain/dates"
)

type Role string

const (
	RoleAdmin                Role = "ADMIN"
	RoleSeniorProjectManager Role = "SENIOR_PROJECT_MANAGER"
	RoleProjectManager       Role = "PROJECT_MANAGER"
	RoleTeamManager          Role = "TEAM_MANAGER"
	RoleMember               Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeniorProjectManager, RoleProjectManager, RoleTeamManager, RoleMember:
		return true
	}
	return false
}

// Employee is the aggregate as returned to callers. Child collections are
// always non-nil.
type Employee struct {
	ID              int64           `json:"employeeId"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Gender          string          `json:"gender"`
	Dob             *dates.Date     `json:"dob"`
	Email           string          `json:"email"`
	PersonalEmail   string          `json:"personalEmail"`
	FatherName      string          `json:"fatherName"`
	Mobile          string          `json:"mobile"`
	PresentStreet   string          `json:"presentStreet"`
	PresentCity     string          `json:"presentCity"`
	PresentState    string          `json:"presentState"`
	PresentZip      string          `json:"presentZip"`
	PermanentStreet string          `json:"permanentStreet"`
	PermanentCity   string          `json:"permanentCity"`
	PermanentState  string          `json:"permanentState"`
	PermanentZip    string          `json:"permanentZip"`
	Role            Role            `json:"role"`
	ProjectID       *int64          `json:"projectId"`
	TeamID          *int64          `json:"teamId"`
	ProfilePhoto    *ProfilePhoto   `json:"profilePhoto"`
	EducationList   []Education     `json:"educationList"`
	Certifications  []Certification `json:"certifications"`
	Skills          []Skill         `json:"skills"`
	Documents       []Document      `json:"documents"`
	Experiences     []Experience    `json:"experiences"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type Education struct {
	ID            int64           `json:"educationId,omitempty"`
	Version       *int64          `json:"version,omitempty"`
	EducationName string          `json:"educationName" validate:"required"`
	College       string          `json:"college" validate:"required"`
	Year          string          `json:"year" validate:"required"`
	Percentage    decimal.Decimal `json:"percentage"`
}

type Certification struct {
	ID           int64       `json:"certificationId,omitempty"`
	Version      *int64      `json:"version,omitempty"`
	Name         string      `json:"name" validate:"required"`
	Organization string      `json:"organization" validate:"required"`
	Date         *dates.Date `json:"date" validate:"required"`
}

type Skill struct {
	ID      int64  `json:"skillId,omitempty"`
	Version *int64 `json:"version,omitempty"`
	Skill   string `json:"skill" validate:"required"`
}

type Experience struct {
	ID      int64  `json:"experienceId,omitempty"`
	Version *int64 `json:"version,omitempty"`
	Level   string `json:"level"`
	JobRole string `json:"jobRole"`
}

// Document metadata. Data is only populated for downloads.
type Document struct {
	ID           int64     `json:"documentId,omitempty"`
	Version      *int64    `json:"version,omitempty"`
	EmployeeID   int64     `json:"employeeId,omitempty"`
	FileName     string    `json:"fileName"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	DocumentType string    `json:"documentType"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	Data         []byte    `json:"-"`
}

type ProfilePhoto struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employeeId"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	FileSize   int64  `json:"fileSize"`
	Data       []byte `json:"-"`
}

// Upload is a binary payload received from a multipart form.
type Upload struct {
	FileName string
	FileType string
	Data     []byte
}

// Input is the incoming representation for create and update. Nil scalars
// leave the stored value untouched on update.
type Input struct {
	FirstName          *string         `json:"firstName"`
	LastName           *string         `json:"lastName"`
	Gender             *string         `json:"gender"`
	Dob                *dates.Date     `json:"dob"`
	Email              *string         `json:"email" validate:"omitempty,email"`
	PersonalEmail      *string         `json:"personalEmail" validate:"omitempty,email"`
	FatherName         *string         `json:"fatherName"`
	Mobile             *string         `json:"mobile" validate:"omitempty,max=32"`
	PresentStreet      *string         `json:"presentStreet"`
	PresentCity        *string         `json:"presentCity"`
	PresentState       *string         `json:"presentState"`
	PresentZip         *string         `json:"presentZip"`
	PermanentStreet    *string         `json:"permanentStreet"`
	PermanentCity      *string         `json:"permanentCity"`
	PermanentState     *string         `json:"permanentState"`
	PermanentZip       *string         `json:"permanentZip"`
	Role               *Role           `json:"role"`
	ProfilePhoto       *PhotoInput     `json:"profilePhoto"`
	EducationList      []Education     `json:"educationList" validate:"dive"`
	Certifications     []Certification `json:"certifications" validate:"dive"`
	Skills             []Skill         `json:"skills" validate:"dive"`
	Documents          []Document      `json:"documents"`
	Experiences        []Experience    `json:"experiences"`
	DocumentsToDelete  []int64         `json:"documentsToDelete"`
	RemoveProfilePhoto *bool           `json:"removeProfilePhoto"`
}

// PhotoInput lets an update carry a replacement photo as base64 data.
type PhotoInput struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Data     []byte `json:"data"`
}

type Page struct {
	Limit  int
	Offset int
}
