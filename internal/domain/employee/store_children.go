package employee

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"ems/internal/domain/apperror"
	"ems/internal/platform/db"
)

// Child tables share the same shape: employee_id owner, BIGSERIAL id and a
// version counter bumped on every update.

func deleteChildren(ctx context.Context, q db.Queryer, table string, employeeID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE employee_id = $1 AND id = ANY($2)`, employeeID, ids)
	return errors.Wrapf(err, "delete %s", table)
}

// versionMiss turns a missing RETURNING row from a compare-and-set update
// into a concurrency conflict.
func versionMiss(err error, kind string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.ConcurrencyConflict("%s %d was modified by another request", kind, id)
	}
	return db.Translate(err, "update "+kind, "")
}

func expected(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

type educationStore struct{ s *Store }

func (e educationStore) List(ctx context.Context, employeeID int64) ([]Education, error) {
	rows, err := e.s.q(ctx).Query(ctx, `
    SELECT id, version, education_name, college, year, percentage::text
    FROM educations
    WHERE employee_id = $1
    ORDER BY id
  `, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "list educations")
	}
	defer rows.Close()

	out := []Education{}
	for rows.Next() {
		var ed Education
		var version int64
		var pct string
		if err := rows.Scan(&ed.ID, &version, &ed.EducationName, &ed.College, &ed.Year, &pct); err != nil {
			return nil, errors.Wrap(err, "scan education")
		}
		ed.Version = &version
		if ed.Percentage, err = decimal.NewFromString(pct); err != nil {
			return nil, errors.Wrapf(err, "parse percentage of education %d", ed.ID)
		}
		out = append(out, ed)
	}
	return out, rows.Err()
}

func (e educationStore) Insert(ctx context.Context, employeeID int64, item Education) (Education, error) {
	var version int64
	err := e.s.q(ctx).QueryRow(ctx, `
    INSERT INTO educations (employee_id, education_name, college, year, percentage, version)
    VALUES ($1, $2, $3, $4, $5::numeric, 0)
    RETURNING id, version
  `, employeeID, item.EducationName, item.College, item.Year, item.Percentage.String()).Scan(&item.ID, &version)
	if err != nil {
		return Education{}, db.Translate(err, "insert education", "")
	}
	item.Version = &version
	return item, nil
}

func (e educationStore) Update(ctx context.Context, employeeID int64, item Education) (Education, error) {
	var version int64
	err := e.s.q(ctx).QueryRow(ctx, `
    UPDATE educations
    SET education_name = $4, college = $5, year = $6, percentage = $7::numeric, version = version + 1
    WHERE id = $1 AND employee_id = $2 AND version = $3
    RETURNING version
  `, item.ID, employeeID, expected(item.Version), item.EducationName, item.College, item.Year, item.Percentage.String()).Scan(&version)
	if err != nil {
		return Education{}, versionMiss(err, "education", item.ID)
	}
	item.Version = &version
	return item, nil
}

func (e educationStore) Delete(ctx context.Context, employeeID int64, ids []int64) error {
	return deleteChildren(ctx, e.s.q(ctx), "educations", employeeID, ids)
}

type certificationStore struct{ s *Store }

func (c certificationStore) List(ctx context.Context, employeeID int64) ([]Certification, error) {
	rows, err := c.s.q(ctx).Query(ctx, `
    SELECT id, version, name, organization, certified_on
    FROM certifications
    WHERE employee_id = $1
    ORDER BY id
  `, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "list certifications")
	}
	defer rows.Close()

	out := []Certification{}
	for rows.Next() {
		var cert Certification
		var version int64
		var on pgtype.Date
		if err := rows.Scan(&cert.ID, &version, &cert.Name, &cert.Organization, &on); err != nil {
			return nil, errors.Wrap(err, "scan certification")
		}
		cert.Version = &version
		cert.Date = dateFromPG(on)
		out = append(out, cert)
	}
	return out, rows.Err()
}

func (c certificationStore) Insert(ctx context.Context, employeeID int64, item Certification) (Certification, error) {
	var version int64
	err := c.s.q(ctx).QueryRow(ctx, `
    INSERT INTO certifications (employee_id, name, organization, certified_on, version)
    VALUES ($1, $2, $3, $4, 0)
    RETURNING id, version
  `, employeeID, item.Name, item.Organization, dateArg(item.Date)).Scan(&item.ID, &version)
	if err != nil {
		return Certification{}, db.Translate(err, "insert certification", "")
	}
	item.Version = &version
	return item, nil
}

func (c certificationStore) Update(ctx context.Context, employeeID int64, item Certification) (Certification, error) {
	var version int64
	err := c.s.q(ctx).QueryRow(ctx, `
    UPDATE certifications
    SET name = $4, organization = $5, certified_on = $6, version = version + 1
    WHERE id = $1 AND employee_id = $2 AND version = $3
    RETURNING version
  `, item.ID, employeeID, expected(item.Version), item.Name, item.Organization, dateArg(item.Date)).Scan(&version)
	if err != nil {
		return Certification{}, versionMiss(err, "certification", item.ID)
	}
	item.Version = &version
	return item, nil
}

func (c certificationStore) Delete(ctx context.Context, employeeID int64, ids []int64) error {
	return deleteChildren(ctx, c.s.q(ctx), "certifications", employeeID, ids)
}

type skillStore struct{ s *Store }

func (k skillStore) List(ctx context.Context, employeeID int64) ([]Skill, error) {
	rows, err := k.s.q(ctx).Query(ctx, `
    SELECT id, version, skill
    FROM skills
    WHERE employee_id = $1
    ORDER BY id
  `, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "list skills")
	}
	defer rows.Close()

	out := []Skill{}
	for rows.Next() {
		var sk Skill
		var version int64
		if err := rows.Scan(&sk.ID, &version, &sk.Skill); err != nil {
			return nil, errors.Wrap(err, "scan skill")
		}
		sk.Version = &version
		out = append(out, sk)
	}
	return out, rows.Err()
}

func (k skillStore) Insert(ctx context.Context, employeeID int64, item Skill) (Skill, error) {
	var version int64
	err := k.s.q(ctx).QueryRow(ctx, `
    INSERT INTO skills (employee_id, skill, version)
    VALUES ($1, $2, 0)
    RETURNING id, version
  `, employeeID, item.Skill).Scan(&item.ID, &version)
	if err != nil {
		return Skill{}, db.Translate(err, "insert skill", "")
	}
	item.Version = &version
	return item, nil
}

func (k skillStore) Update(ctx context.Context, employeeID int64, item Skill) (Skill, error) {
	var version int64
	err := k.s.q(ctx).QueryRow(ctx, `
    UPDATE skills
    SET skill = $4, version = version + 1
    WHERE id = $1 AND employee_id = $2 AND version = $3
    RETURNING version
  `, item.ID, employeeID, expected(item.Version), item.Skill).Scan(&version)
	if err != nil {
		return Skill{}, versionMiss(err, "skill", item.ID)
	}
	item.Version = &version
	return item, nil
}

func (k skillStore) Delete(ctx context.Context, employeeID int64, ids []int64) error {
	return deleteChildren(ctx, k.s.q(ctx), "skills", employeeID, ids)
}

type experienceStore struct{ s *Store }

func (x experienceStore) List(ctx context.Context, employeeID int64) ([]Experience, error) {
	rows, err := x.s.q(ctx).Query(ctx, `
    SELECT id, version, COALESCE(level, ''), COALESCE(job_role, '')
    FROM experiences
    WHERE employee_id = $1
    ORDER BY id
  `, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "list experiences")
	}
	defer rows.Close()

	out := []Experience{}
	for rows.Next() {
		var exp Experience
		var version int64
		if err := rows.Scan(&exp.ID, &version, &exp.Level, &exp.JobRole); err != nil {
			return nil, errors.Wrap(err, "scan experience")
		}
		exp.Version = &version
		out = append(out, exp)
	}
	return out, rows.Err()
}

func (x experienceStore) Insert(ctx context.Context, employeeID int64, item Experience) (Experience, error) {
	var version int64
	err := x.s.q(ctx).QueryRow(ctx, `
    INSERT INTO experiences (employee_id, level, job_role, version)
    VALUES ($1, $2, $3, 0)
    RETURNING id, version
  `, employeeID, nullIfEmpty(item.Level), nullIfEmpty(item.JobRole)).Scan(&item.ID, &version)
	if err != nil {
		return Experience{}, db.Translate(err, "insert experience", "")
	}
	item.Version = &version
	return item, nil
}

func (x experienceStore) Update(ctx context.Context, employeeID int64, item Experience) (Experience, error) {
	var version int64
	err := x.s.q(ctx).QueryRow(ctx, `
    UPDATE experiences
    SET level = $4, job_role = $5, version = version + 1
    WHERE id = $1 AND employee_id = $2 AND version = $3
    RETURNING version
  `, item.ID, employeeID, expected(item.Version), nullIfEmpty(item.Level), nullIfEmpty(item.JobRole)).Scan(&version)
	if err != nil {
		return Experience{}, versionMiss(err, "experience", item.ID)
	}
	item.Version = &version
	return item, nil
}

func (x experienceStore) Delete(ctx context.Context, employeeID int64, ids []int64) error {
	return deleteChildren(ctx, x.s.q(ctx), "experiences", employeeID, ids)
}
