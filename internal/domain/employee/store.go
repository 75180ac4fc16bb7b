package employee

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"ems/internal/domain/apperror"
	"ems/internal/domain/dates"
	"ems/internal/platform/crypto"
	"ems/internal/platform/db"
)

// Store is the Postgres implementation of every employee store interface.
// Queries run on the transaction carried by the context when there is one.
type Store struct {
	DB     db.Queryer
	Crypto *crypto.Service
}

func NewStore(q db.Queryer, sealer *crypto.Service) *Store {
	return &Store{DB: q, Crypto: sealer}
}

// PostgresStores exposes s through every interface the service needs.
func PostgresStores(s *Store) Stores {
	return Stores{
		Employees:      s,
		Educations:     educationStore{s},
		Certifications: certificationStore{s},
		Skills:         skillStore{s},
		Experiences:    experienceStore{s},
		Documents:      s,
		Photos:         s,
	}
}

func (s *Store) q(ctx context.Context) db.Queryer {
	return db.QueryerFromContext(ctx, s.DB)
}

const employeeColumns = `
           id, first_name, last_name,
           COALESCE(gender, ''), dob, email,
           COALESCE(personal_email, ''), COALESCE(father_name, ''), COALESCE(mobile, ''),
           COALESCE(present_street, ''), COALESCE(present_city, ''), COALESCE(present_state, ''), COALESCE(present_zip, ''),
           COALESCE(permanent_street, ''), COALESCE(permanent_city, ''), COALESCE(permanent_state, ''), COALESCE(permanent_zip, ''),
           role, project_id, team_id, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var dob pgtype.Date
	var role string
	if err := row.Scan(
		&emp.ID, &emp.FirstName, &emp.LastName,
		&emp.Gender, &dob, &emp.Email,
		&emp.PersonalEmail, &emp.FatherName, &emp.Mobile,
		&emp.PresentStreet, &emp.PresentCity, &emp.PresentState, &emp.PresentZip,
		&emp.PermanentStreet, &emp.PermanentCity, &emp.PermanentState, &emp.PermanentZip,
		&role, &emp.ProjectID, &emp.TeamID, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	emp.Role = Role(role)
	emp.Dob = dateFromPG(dob)
	return emp, nil
}

func (s *Store) Insert(ctx context.Context, emp *Employee) error {
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO employees (
      first_name, last_name, gender, dob, email, personal_email, father_name, mobile,
      present_street, present_city, present_state, present_zip,
      permanent_street, permanent_city, permanent_state, permanent_zip, role
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    RETURNING id, created_at, updated_at
  `, emp.FirstName, emp.LastName, nullIfEmpty(emp.Gender), dateArg(emp.Dob), emp.Email,
		nullIfEmpty(emp.PersonalEmail), nullIfEmpty(emp.FatherName), nullIfEmpty(emp.Mobile),
		nullIfEmpty(emp.PresentStreet), nullIfEmpty(emp.PresentCity), nullIfEmpty(emp.PresentState), nullIfEmpty(emp.PresentZip),
		nullIfEmpty(emp.PermanentStreet), nullIfEmpty(emp.PermanentCity), nullIfEmpty(emp.PermanentState), nullIfEmpty(emp.PermanentZip),
		string(emp.Role),
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	return db.Translate(err, "insert employee", "")
}

func (s *Store) Get(ctx context.Context, id int64) (Employee, error) {
	emp, err := scanEmployee(s.q(ctx).QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE id = $1
  `, id))
	if err != nil {
		return Employee{}, db.Translate(err, "get employee", notFoundMessage(id))
	}
	return emp, nil
}

func (s *Store) List(ctx context.Context, page Page) ([]Employee, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    ORDER BY id
    LIMIT $1 OFFSET $2
  `, page.Limit, page.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "list employees")
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan employee")
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// FindByEmail matches either the work or the personal email.
func (s *Store) FindByEmail(ctx context.Context, email string) (Employee, error) {
	emp, err := scanEmployee(s.q(ctx).QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE email = $1 OR personal_email = $1
    ORDER BY id
    LIMIT 1
  `, email))
	if err != nil {
		return Employee{}, db.Translate(err, "find employee by email", "Employee not found with email: "+email)
	}
	return emp, nil
}

// Update writes the scalar columns. Team and project membership is owned
// by the org package and left alone.
func (s *Store) Update(ctx context.Context, emp *Employee) error {
	err := s.q(ctx).QueryRow(ctx, `
    UPDATE employees
    SET first_name = $2, last_name = $3, gender = $4, dob = $5, email = $6,
        personal_email = $7, father_name = $8, mobile = $9,
        present_street = $10, present_city = $11, present_state = $12, present_zip = $13,
        permanent_street = $14, permanent_city = $15, permanent_state = $16, permanent_zip = $17,
        role = $18, updated_at = now()
    WHERE id = $1
    RETURNING updated_at
  `, emp.ID, emp.FirstName, emp.LastName, nullIfEmpty(emp.Gender), dateArg(emp.Dob), emp.Email,
		nullIfEmpty(emp.PersonalEmail), nullIfEmpty(emp.FatherName), nullIfEmpty(emp.Mobile),
		nullIfEmpty(emp.PresentStreet), nullIfEmpty(emp.PresentCity), nullIfEmpty(emp.PresentState), nullIfEmpty(emp.PresentZip),
		nullIfEmpty(emp.PermanentStreet), nullIfEmpty(emp.PermanentCity), nullIfEmpty(emp.PermanentState), nullIfEmpty(emp.PermanentZip),
		string(emp.Role),
	).Scan(&emp.UpdatedAt)
	return db.Translate(err, "update employee", notFoundMessage(emp.ID))
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "delete employee", "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("%s", notFoundMessage(id))
	}
	return nil
}

func (s *Store) ValueTaken(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error) {
	switch field {
	case FieldEmail, FieldPersonalEmail, FieldMobile:
	default:
		return false, errors.Errorf("unknown unique field %q", field)
	}
	var taken bool
	err := s.q(ctx).QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM employees WHERE `+string(field)+` = $1 AND id <> $2)
  `, value, excludeID).Scan(&taken)
	if err != nil {
		return false, errors.Wrapf(err, "check %s uniqueness", field)
	}
	return taken, nil
}

func notFoundMessage(id int64) string {
	return "Employee not found with id: " + strconv.FormatInt(id, 10)
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func dateArg(d *dates.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time
}

func dateFromPG(d pgtype.Date) *dates.Date {
	if !d.Valid {
		return nil
	}
	out := dates.FromTime(d.Time)
	return &out
}
