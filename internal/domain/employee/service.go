package employee

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"ems/internal/domain/apperror"
	"ems/internal/domain/identity"
)

// EventRecorder counts domain events. *metrics.Collector satisfies it.
type EventRecorder interface {
	Event(name string)
}

type Service struct {
	stores Stores
	tx     Transactor
	events EventRecorder
}

func NewService(stores Stores, tx Transactor, events EventRecorder) *Service {
	return &Service{stores: stores, tx: tx, events: events}
}

func (s *Service) record(name string) {
	if s.events != nil {
		s.events.Event(name)
	}
}

func (s *Service) read(ctx context.Context, fn func(context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinReadOnly(ctx, fn)
}

func (s *Service) write(ctx context.Context, fn func(context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinReadWrite(ctx, fn)
}

var maxPercentage = decimal.NewFromInt(100)

// validateEducation bounds percentages to 0..100. The column is NUMERIC(6,2).
func validateEducation(list []Education) error {
	for _, ed := range list {
		if ed.Percentage.IsNegative() || ed.Percentage.GreaterThan(maxPercentage) {
			return apperror.InvalidArgument("percentage must be between 0 and 100, got %s", ed.Percentage.String())
		}
	}
	return nil
}

func requireAdmin(caller identity.Identity) error {
	if !caller.IsAdmin {
		return apperror.Forbidden("Admin access required")
	}
	return nil
}

func authorize(caller identity.Identity, emp Employee) error {
	if !caller.CanAccessEmployee(emp.Email, emp.PersonalEmail) {
		return apperror.Forbidden("You can only access your own employee record")
	}
	return nil
}

// Create stores a new employee with its child records. Any profile photo on
// the input is ignored; photos are uploaded once the employee exists.
func (s *Service) Create(ctx context.Context, caller identity.Identity, in Input) (Employee, error) {
	if err := requireAdmin(caller); err != nil {
		return Employee{}, err
	}
	var emp Employee
	applyInput(&emp, in)
	emp.Email = strings.TrimSpace(emp.Email)
	if emp.FirstName == "" || emp.LastName == "" || emp.Email == "" {
		return Employee{}, apperror.InvalidArgument("firstName, lastName and email are required")
	}
	if emp.Role == "" {
		emp.Role = RoleMember
	}
	if !emp.Role.Valid() {
		return Employee{}, apperror.InvalidArgument("Invalid role: %s", emp.Role)
	}
	if err := validateEducation(in.EducationList); err != nil {
		return Employee{}, err
	}

	var out Employee
	err := s.write(ctx, func(ctx context.Context) error {
		if err := s.checkUnique(ctx, emp, 0); err != nil {
			return err
		}
		if err := s.stores.Employees.Insert(ctx, &emp); err != nil {
			return err
		}
		if _, err := InsertAll(ctx, s.stores.Educations, emp.ID, in.EducationList); err != nil {
			return err
		}
		if _, err := InsertAll(ctx, s.stores.Certifications, emp.ID, in.Certifications); err != nil {
			return err
		}
		if _, err := InsertAll(ctx, s.stores.Skills, emp.ID, in.Skills); err != nil {
			return err
		}
		if _, err := InsertAll(ctx, s.stores.Experiences, emp.ID, in.Experiences); err != nil {
			return err
		}
		var err error
		out, err = s.load(ctx, emp.ID)
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	s.record("employee.created")
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller identity.Identity, id int64) (Employee, error) {
	var out Employee
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	if err := authorize(caller, out); err != nil {
		return Employee{}, err
	}
	return out, nil
}

// GetByEmail matches the work or personal email. An identifier shaped like
// "provider|user@example.com" is retried with the part after the separator.
func (s *Service) GetByEmail(ctx context.Context, email string) (Employee, error) {
	var out Employee
	err := s.read(ctx, func(ctx context.Context) error {
		emp, err := s.findByEmail(ctx, email)
		if err != nil {
			return err
		}
		out, err = s.load(ctx, emp.ID)
		return err
	})
	return out, err
}

// EmployeeIDByEmail serves identity resolution.
func (s *Service) EmployeeIDByEmail(ctx context.Context, email string) (int64, error) {
	emp, err := s.findByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return emp.ID, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (Employee, error) {
	emp, err := s.stores.Employees.FindByEmail(ctx, email)
	if err == nil || !errors.Is(err, apperror.ErrNotFound) {
		return emp, err
	}
	if i := strings.Index(email, "|"); i >= 0 {
		if rest := email[i+1:]; rest != "" {
			if emp, err := s.stores.Employees.FindByEmail(ctx, rest); err == nil {
				return emp, nil
			}
		}
	}
	return Employee{}, apperror.NotFound("Employee not found with email: %s", email)
}

// List returns every employee for admins. Other callers only see their own
// record, or nothing when they have none.
func (s *Service) List(ctx context.Context, caller identity.Identity, page Page) ([]Employee, error) {
	out := []Employee{}
	err := s.read(ctx, func(ctx context.Context) error {
		if !caller.IsAdmin {
			self, err := s.findByEmail(ctx, caller.Email)
			if errors.Is(err, apperror.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			emp, err := s.load(ctx, self.ID)
			if err != nil {
				return err
			}
			out = append(out, emp)
			return nil
		}
		rows, err := s.stores.Employees.List(ctx, page)
		if err != nil {
			return err
		}
		for _, row := range rows {
			emp, err := s.load(ctx, row.ID)
			if err != nil {
				return err
			}
			out = append(out, emp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update reconciles the stored aggregate with in. Everything happens in one
// transaction; a stale child version rolls the whole update back.
func (s *Service) Update(ctx context.Context, caller identity.Identity, id int64, in Input) (Employee, error) {
	if err := requireAdmin(caller); err != nil {
		return Employee{}, err
	}
	if in.Role != nil && !in.Role.Valid() {
		return Employee{}, apperror.InvalidArgument("Invalid role: %s", *in.Role)
	}
	if err := validateEducation(in.EducationList); err != nil {
		return Employee{}, err
	}
	if in.ProfilePhoto != nil && len(in.ProfilePhoto.Data) > 0 {
		if err := ValidatePhoto(Upload{FileName: in.ProfilePhoto.FileName, FileType: in.ProfilePhoto.FileType, Data: in.ProfilePhoto.Data}); err != nil {
			return Employee{}, err
		}
	}

	var out Employee
	err := s.write(ctx, func(ctx context.Context) error {
		emp, err := s.stores.Employees.Get(ctx, id)
		if err != nil {
			return err
		}

		if _, err := s.stores.Documents.DeleteDocuments(ctx, id, in.DocumentsToDelete); err != nil {
			return err
		}
		if err := s.applyPhotoIntent(ctx, id, in); err != nil {
			return err
		}

		applyInput(&emp, in)
		if strings.TrimSpace(emp.Email) == "" {
			return apperror.InvalidArgument("email must not be empty")
		}
		if err := s.checkUnique(ctx, emp, id); err != nil {
			return err
		}
		if err := s.stores.Employees.Update(ctx, &emp); err != nil {
			return err
		}

		if _, err := Reconcile(ctx, s.stores.Educations, id, in.EducationList); err != nil {
			return err
		}
		if _, err := Reconcile(ctx, s.stores.Certifications, id, in.Certifications); err != nil {
			return err
		}
		if _, err := Reconcile(ctx, s.stores.Skills, id, in.Skills); err != nil {
			return err
		}
		if _, err := Reconcile(ctx, s.stores.Experiences, id, in.Experiences); err != nil {
			return err
		}
		if err := s.updateDocumentMeta(ctx, id, in.Documents, in.DocumentsToDelete); err != nil {
			return err
		}

		out, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	s.record("employee.updated")
	return out, nil
}

func (s *Service) applyPhotoIntent(ctx context.Context, employeeID int64, in Input) error {
	if in.RemoveProfilePhoto != nil && *in.RemoveProfilePhoto {
		_, err := s.stores.Photos.DeletePhoto(ctx, employeeID)
		return err
	}
	if in.ProfilePhoto == nil || len(in.ProfilePhoto.Data) == 0 {
		return nil
	}
	_, err := s.stores.Photos.ReplacePhoto(ctx, employeeID, ProfilePhoto{
		FileName: in.ProfilePhoto.FileName,
		FileType: in.ProfilePhoto.FileType,
		Data:     in.ProfilePhoto.Data,
	})
	return err
}

// updateDocumentMeta touches existing documents referenced by id. Unknown
// ids and documents queued for deletion are skipped; bytes never change here.
func (s *Service) updateDocumentMeta(ctx context.Context, employeeID int64, docs []Document, deleted []int64) error {
	if len(docs) == 0 {
		return nil
	}
	current, err := s.stores.Documents.ListDocuments(ctx, employeeID)
	if err != nil {
		return err
	}
	known := make(map[int64]Document, len(current))
	for _, d := range current {
		known[d.ID] = d
	}
	gone := make(map[int64]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	for _, d := range docs {
		existing, ok := known[d.ID]
		if d.ID == 0 || !ok || gone[d.ID] {
			continue
		}
		if d.Version == nil {
			d.Version = existing.Version
		}
		if _, err := s.stores.Documents.UpdateDocumentMeta(ctx, employeeID, d); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the employee. Documents are not cascaded by the schema, so
// they and the reconciled children are removed explicitly first.
func (s *Service) Delete(ctx context.Context, caller identity.Identity, id int64) (Employee, error) {
	if err := requireAdmin(caller); err != nil {
		return Employee{}, err
	}
	var before Employee
	err := s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := s.stores.Educations.Delete(ctx, id, childIDs(before.EducationList)); err != nil {
			return err
		}
		if err := s.stores.Certifications.Delete(ctx, id, childIDs(before.Certifications)); err != nil {
			return err
		}
		if err := s.stores.Skills.Delete(ctx, id, childIDs(before.Skills)); err != nil {
			return err
		}
		if err := s.stores.Documents.DeleteAllDocuments(ctx, id); err != nil {
			return err
		}
		return s.stores.Employees.Delete(ctx, id)
	})
	if err != nil {
		return Employee{}, err
	}
	s.record("employee.deleted")
	return before, nil
}

// load assembles the aggregate. The photo is fetched separately and may be
// absent.
func (s *Service) load(ctx context.Context, id int64) (Employee, error) {
	emp, err := s.stores.Employees.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if emp.EducationList, err = s.stores.Educations.List(ctx, id); err != nil {
		return Employee{}, err
	}
	if emp.Certifications, err = s.stores.Certifications.List(ctx, id); err != nil {
		return Employee{}, err
	}
	if emp.Skills, err = s.stores.Skills.List(ctx, id); err != nil {
		return Employee{}, err
	}
	if emp.Experiences, err = s.stores.Experiences.List(ctx, id); err != nil {
		return Employee{}, err
	}
	if emp.Documents, err = s.stores.Documents.ListDocuments(ctx, id); err != nil {
		return Employee{}, err
	}
	if emp.ProfilePhoto, err = s.stores.Photos.GetPhoto(ctx, id); err != nil {
		return Employee{}, err
	}
	ensureLists(&emp)
	return emp, nil
}

func ensureLists(emp *Employee) {
	if emp.EducationList == nil {
		emp.EducationList = []Education{}
	}
	if emp.Certifications == nil {
		emp.Certifications = []Certification{}
	}
	if emp.Skills == nil {
		emp.Skills = []Skill{}
	}
	if emp.Experiences == nil {
		emp.Experiences = []Experience{}
	}
	if emp.Documents == nil {
		emp.Documents = []Document{}
	}
}

// checkUnique fails with DuplicateValue when another employee already holds
// the email, personal email or mobile of emp.
func (s *Service) checkUnique(ctx context.Context, emp Employee, excludeID int64) error {
	checks := []struct {
		field UniqueField
		value string
		msg   string
	}{
		{FieldEmail, emp.Email, "Email already exists"},
		{FieldPersonalEmail, emp.PersonalEmail, "Personal email already exists"},
		{FieldMobile, emp.Mobile, "Mobile number already exists"},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			continue
		}
		taken, err := s.stores.Employees.ValueTaken(ctx, c.field, c.value, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Duplicate("%s", c.msg)
		}
	}
	return nil
}

// applyInput copies every non-nil scalar of in onto emp.
func applyInput(emp *Employee, in Input) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&emp.FirstName, in.FirstName)
	set(&emp.LastName, in.LastName)
	set(&emp.Gender, in.Gender)
	set(&emp.Email, in.Email)
	set(&emp.PersonalEmail, in.PersonalEmail)
	set(&emp.FatherName, in.FatherName)
	set(&emp.Mobile, in.Mobile)
	set(&emp.PresentStreet, in.PresentStreet)
	set(&emp.PresentCity, in.PresentCity)
	set(&emp.PresentState, in.PresentState)
	set(&emp.PresentZip, in.PresentZip)
	set(&emp.PermanentStreet, in.PermanentStreet)
	set(&emp.PermanentCity, in.PermanentCity)
	set(&emp.PermanentState, in.PermanentState)
	set(&emp.PermanentZip, in.PermanentZip)
	if in.Dob != nil {
		dob := *in.Dob
		emp.Dob = &dob
	}
	if in.Role != nil {
		emp.Role = *in.Role
	}
}

func childIDs[T Child[T]](items []T) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ChildID())
	}
	return ids
}
