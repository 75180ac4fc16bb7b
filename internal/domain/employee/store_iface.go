package employee

import "context"

// UniqueField names an employee column that must be unique across employees.
type UniqueField string

const (
	FieldEmail         UniqueField = "email"
	FieldPersonalEmail UniqueField = "personal_email"
	FieldMobile        UniqueField = "mobile"
)

// StoreAPI persists the employee row itself. Child collections, documents
// and the photo have their own stores.
type StoreAPI interface {
	Insert(ctx context.Context, emp *Employee) error
	Get(ctx context.Context, id int64) (Employee, error)
	List(ctx context.Context, page Page) ([]Employee, error)
	FindByEmail(ctx context.Context, email string) (Employee, error)
	Update(ctx context.Context, emp *Employee) error
	Delete(ctx context.Context, id int64) error
	// ValueTaken reports whether another employee (not excludeID) already
	// holds value in field.
	ValueTaken(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error)
}

type DocumentStore interface {
	ListDocuments(ctx context.Context, employeeID int64) ([]Document, error)
	GetDocument(ctx context.Context, employeeID, documentID int64) (Document, error)
	InsertDocument(ctx context.Context, employeeID int64, doc Document) (Document, error)
	UpdateDocumentMeta(ctx context.Context, employeeID int64, doc Document) (Document, error)
	DeleteDocuments(ctx context.Context, employeeID int64, ids []int64) (int64, error)
	DeleteAllDocuments(ctx context.Context, employeeID int64) error
}

type PhotoStore interface {
	// GetPhoto returns nil without error when the employee has no photo.
	GetPhoto(ctx context.Context, employeeID int64) (*ProfilePhoto, error)
	ReplacePhoto(ctx context.Context, employeeID int64, photo ProfilePhoto) (ProfilePhoto, error)
	DeletePhoto(ctx context.Context, employeeID int64) (bool, error)
}

// Transactor runs fn as one unit of work.
type Transactor interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Stores groups every persistence dependency of the service.
type Stores struct {
	Employees      StoreAPI
	Educations     ChildStore[Education]
	Certifications ChildStore[Certification]
	Skills         ChildStore[Skill]
	Experiences    ChildStore[Experience]
	Documents      DocumentStore
	Photos         PhotoStore
}
