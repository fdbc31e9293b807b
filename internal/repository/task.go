package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const dateLayout = "2006-01-02"

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func scanTask(scan func(dest ...any) error) (models.Task, error) {
	var t models.Task
	var deadline sql.NullTime
	err := scan(&t.ID, &t.Title, &t.Description, &t.Status, &deadline, &t.ProjectID, &t.AssigneeID, &t.CreatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if deadline.Valid {
		d := deadline.Time.Format(dateLayout)
		t.Deadline = &d
	}
	return t, nil
}

func (r *TaskRepo) Create(title string, description *string, status models.Status, deadline *string, projectID int, assigneeID *int) (models.Task, error) {
	row := r.db.QueryRow(
		"INSERT INTO tasks (title, description, status, deadline, project_id, assignee_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, title, description, status, deadline, project_id, assignee_id, created_at",
		title, description, string(status), deadline, projectID, assigneeID,
	)
	t, err := scanTask(row.Scan)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) GetByID(id int) (models.Task, error) {
	row := r.db.QueryRow(
		"SELECT id, title, description, status, deadline, project_id, assignee_id, created_at FROM tasks WHERE id = $1",
		id,
	)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, apperr.NotFound("Task not found")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("fetching task: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) list(query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) List() ([]models.Task, error) {
	return r.list("SELECT id, title, description, status, deadline, project_id, assignee_id, created_at FROM tasks ORDER BY id")
}

// ListByProject returns the tasks of one project. An unknown project id
// yields an empty list, not an error.
func (r *TaskRepo) ListByProject(projectID int) ([]models.Task, error) {
	return r.list("SELECT id, title, description, status, deadline, project_id, assignee_id, created_at FROM tasks WHERE project_id = $1 ORDER BY id", projectID)
}

// Update overwrites the mutable columns; the handler merges the supplied
// fields into the current row first. Description is deliberately not
// touched here.
func (r *TaskRepo) Update(id int, title string, status models.Status, deadline *string, assigneeID *int) (models.Task, error) {
	_, err := r.db.Exec(
		"UPDATE tasks SET title = $1, status = $2, deadline = $3, assignee_id = $4 WHERE id = $5",
		title, string(status), deadline, assigneeID, id,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("updating task: %w", err)
	}
	return r.GetByID(id)
}

func (r *TaskRepo) Delete(id int) error {
	res, err := r.db.Exec("DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("Task not found")
	}
	return nil
}

// Metrics aggregates task counts: total, overdue (deadline strictly
// before today and not Done), and a per-status breakdown that always
// carries all three statuses.
func (r *TaskRepo) Metrics(now time.Time) (models.Metrics, error) {
	rows, err := r.db.Query("SELECT status, deadline FROM tasks")
	if err != nil {
		return models.Metrics{}, fmt.Errorf("aggregating tasks: %w", err)
	}
	defer rows.Close()

	today := now.Format(dateLayout)
	m := models.Metrics{
		ByStatus: map[models.Status]int{
			models.StatusToDo:       0,
			models.StatusInProgress: 0,
			models.StatusDone:       0,
		},
	}
	for rows.Next() {
		var status models.Status
		var deadline sql.NullTime
		if err := rows.Scan(&status, &deadline); err != nil {
			return models.Metrics{}, fmt.Errorf("scanning task: %w", err)
		}
		m.TotalTasks++
		m.ByStatus[status]++
		if deadline.Valid && deadline.Time.Format(dateLayout) < today && status != models.StatusDone {
			m.Overdue++
		}
	}
	if err := rows.Err(); err != nil {
		return models.Metrics{}, fmt.Errorf("iterating tasks: %w", err)
	}
	return m, nil
}
