package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts the project and attaches the resolved members in one
// transaction. Member ids that do not resolve to a user are skipped
// without error.
func (r *ProjectRepo) Create(title string, description *string, memberIDs []int) (models.Project, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return models.Project{}, fmt.Errorf("creating project: %w", err)
	}
	defer tx.Rollback()

	p := models.Project{Title: title, Description: description, Members: []models.User{}}
	err = tx.QueryRow(
		"INSERT INTO projects (title, description) VALUES ($1, $2) RETURNING id, created_at",
		title, description,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return models.Project{}, fmt.Errorf("creating project: %w", err)
	}

	for _, uid := range memberIDs {
		var u models.User
		err := tx.QueryRow(
			"SELECT id, full_name, email, role FROM users WHERE id = $1",
			uid,
		).Scan(&u.ID, &u.FullName, &u.Email, &u.Role)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return models.Project{}, fmt.Errorf("resolving member: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			p.ID, u.ID,
		); err != nil {
			return models.Project{}, fmt.Errorf("attaching member: %w", err)
		}
		p.Members = append(p.Members, u)
	}

	if err := tx.Commit(); err != nil {
		return models.Project{}, fmt.Errorf("creating project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) members(projectID int) ([]models.User, error) {
	rows, err := r.db.Query(
		"SELECT u.id, u.full_name, u.email, u.role FROM users u JOIN project_members pm ON pm.user_id = u.id WHERE pm.project_id = $1 ORDER BY u.id",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	members := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return members, nil
}

func (r *ProjectRepo) GetByID(id int) (models.Project, error) {
	var p models.Project
	err := r.db.QueryRow(
		"SELECT id, title, description, created_at FROM projects WHERE id = $1",
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, apperr.NotFound("Project not found")
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("fetching project: %w", err)
	}
	p.Members, err = r.members(p.ID)
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func (r *ProjectRepo) Exists(id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking project: %w", err)
	}
	return exists, nil
}

func (r *ProjectRepo) List() ([]models.Project, error) {
	rows, err := r.db.Query("SELECT id, title, description, created_at FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	for i := range projects {
		projects[i].Members, err = r.members(projects[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Update overwrites title and description; the handler merges the
// supplied fields into the current row first.
func (r *ProjectRepo) Update(id int, title string, description *string) (models.Project, error) {
	_, err := r.db.Exec(
		"UPDATE projects SET title = $1, description = $2 WHERE id = $3",
		title, description, id,
	)
	if err != nil {
		return models.Project{}, fmt.Errorf("updating project: %w", err)
	}
	return r.GetByID(id)
}

// Delete removes the project, its tasks and its membership rows in one
// transaction.
func (r *ProjectRepo) Delete(id int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tasks WHERE project_id = $1", id); err != nil {
		return fmt.Errorf("deleting project tasks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM project_members WHERE project_id = $1", id); err != nil {
		return fmt.Errorf("deleting project members: %w", err)
	}
	res, err := tx.Exec("DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("Project not found")
	}
	return tx.Commit()
}

// AddMember attaches an existing user to an existing project. Attaching
// twice is a no-op.
func (r *ProjectRepo) AddMember(projectID, userID int) error {
	exists, err := r.Exists(projectID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("Project not found")
	}

	var userExists bool
	err = r.db.QueryRow("SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&userExists)
	if err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if !userExists {
		return apperr.NotFound("User not found")
	}

	_, err = r.db.Exec(
		"INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// RemoveMember detaches a user from a project. Removing a user that is
// not a member is a no-op.
func (r *ProjectRepo) RemoveMember(projectID, userID int) error {
	exists, err := r.Exists(projectID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("Project not found")
	}

	_, err = r.db.Exec(
		"DELETE FROM project_members WHERE project_id = $1 AND user_id = $2",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}
