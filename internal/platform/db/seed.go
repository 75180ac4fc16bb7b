package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"
)

// SeedFile is the fixture format read from SEED_FILE.
type SeedFile struct {
	Employees []SeedEmployee `yaml:"employees"`
	Projects  []SeedProject  `yaml:"projects"`
}

type SeedEmployee struct {
	FirstName     string `yaml:"firstName"`
	LastName      string `yaml:"lastName"`
	Email         string `yaml:"email"`
	PersonalEmail string `yaml:"personalEmail"`
	Mobile        string `yaml:"mobile"`
	Role          string `yaml:"role"`
}

type SeedProject struct {
	Name                 string     `yaml:"name"`
	SeniorProjectManager string     `yaml:"seniorProjectManager"`
	Teams                []SeedTeam `yaml:"teams"`
}

type SeedTeam struct {
	Name           string   `yaml:"name"`
	ProjectManager string   `yaml:"projectManager"`
	TeamManager    string   `yaml:"teamManager"`
	Members        []string `yaml:"members"`
}

var seedRoles = map[string]bool{
	"ADMIN":                  true,
	"SENIOR_PROJECT_MANAGER": true,
	"PROJECT_MANAGER":        true,
	"TEAM_MANAGER":           true,
	"MEMBER":                 true,
}

func LoadSeedFile(path string) (SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return SeedFile{}, err
	}
	return seed, nil
}

// Validate checks roles and that every referenced email is declared.
func (s SeedFile) Validate() error {
	known := map[string]bool{}
	for i, emp := range s.Employees {
		email := strings.ToLower(strings.TrimSpace(emp.Email))
		if email == "" || strings.TrimSpace(emp.FirstName) == "" || strings.TrimSpace(emp.LastName) == "" {
			return fmt.Errorf("seed employee %d: firstName, lastName and email are required", i)
		}
		if emp.Role != "" && !seedRoles[emp.Role] {
			return fmt.Errorf("seed employee %s: unknown role %q", emp.Email, emp.Role)
		}
		known[email] = true
	}
	ref := func(owner, email string) error {
		if email == "" || known[strings.ToLower(strings.TrimSpace(email))] {
			return nil
		}
		return fmt.Errorf("%s references undeclared employee %s", owner, email)
	}
	for _, project := range s.Projects {
		if strings.TrimSpace(project.Name) == "" {
			return errors.New("seed project name is required")
		}
		if err := ref("project "+project.Name, project.SeniorProjectManager); err != nil {
			return err
		}
		for _, team := range project.Teams {
			owner := "team " + team.Name
			if err := ref(owner, team.ProjectManager); err != nil {
				return err
			}
			if err := ref(owner, team.TeamManager); err != nil {
				return err
			}
			if len(team.Members) > 6 {
				return fmt.Errorf("%s lists more than 6 members", owner)
			}
			for _, member := range team.Members {
				if err := ref(owner, member); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Seed inserts the fixture. Employees are keyed on email, projects on name
// and teams on name within their project, so running it twice is harmless.
func Seed(ctx context.Context, q Queryer, seed SeedFile) error {
	ids := map[string]int64{}
	for _, emp := range seed.Employees {
		id, err := ensureEmployee(ctx, q, emp)
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", emp.Email, err)
		}
		ids[strings.ToLower(strings.TrimSpace(emp.Email))] = id
	}
	lookup := func(email string) any {
		if id, ok := ids[strings.ToLower(strings.TrimSpace(email))]; ok {
			return id
		}
		return nil
	}

	for _, project := range seed.Projects {
		projectID, err := ensureNamed(ctx, q,
			"SELECT id FROM projects WHERE name = $1",
			"INSERT INTO projects (name, senior_project_manager_id) VALUES ($1, $2) RETURNING id",
			[]any{project.Name}, []any{project.Name, lookup(project.SeniorProjectManager)})
		if err != nil {
			return fmt.Errorf("seed project %s: %w", project.Name, err)
		}
		for _, team := range project.Teams {
			teamID, err := ensureNamed(ctx, q,
				"SELECT id FROM teams WHERE project_id = $1 AND name = $2",
				"INSERT INTO teams (name, project_id, project_manager_id, team_manager_id) VALUES ($1, $2, $3, $4) RETURNING id",
				[]any{projectID, team.Name}, []any{team.Name, projectID, lookup(team.ProjectManager), lookup(team.TeamManager)})
			if err != nil {
				return fmt.Errorf("seed team %s: %w", team.Name, err)
			}
			for _, member := range team.Members {
				if _, err := q.Exec(ctx,
					"UPDATE employees SET team_id = $1, project_id = $2, updated_at = now() WHERE id = $3 AND team_id IS NULL",
					teamID, projectID, lookup(member)); err != nil {
					return fmt.Errorf("seed member %s: %w", member, err)
				}
			}
		}
	}
	return nil
}

func ensureEmployee(ctx context.Context, q Queryer, emp SeedEmployee) (int64, error) {
	role := emp.Role
	if role == "" {
		role = "MEMBER"
	}
	var id int64
	err := q.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", emp.Email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = q.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, personal_email, mobile, role)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, emp.FirstName, emp.LastName, emp.Email, nullIfEmpty(emp.PersonalEmail), nullIfEmpty(emp.Mobile), role).Scan(&id)
	return id, err
}

func ensureNamed(ctx context.Context, q Queryer, selectSQL, insertSQL string, selectArgs, insertArgs []any) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, selectSQL, selectArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = q.QueryRow(ctx, insertSQL, insertArgs...).Scan(&id)
	return id, err
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
