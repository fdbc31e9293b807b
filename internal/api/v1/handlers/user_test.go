package handlers

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getUserQuery    = "SELECT id, full_name, email, role FROM users WHERE id = $1"
	updateUserQuery = "UPDATE users SET full_name = COALESCE(NULLIF($1, ''), full_name), password = COALESCE(NULLIF($2, ''), password), role = COALESCE(NULLIF($3, ''), role) WHERE id = $4"
)

func TestGetUserForbiddenForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	resp := env.doJSON(t, "GET", "/users/9", nil, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The policy denies before the store is ever consulted.
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetUserAllowedForManager(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 2, "manager")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(9, "Dev Nine", "nine@example.com", "developer"))

	resp := env.doJSON(t, "GET", "/users/9", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "Dev Nine", data["full_name"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetUserServedFromCache(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "developer"))

	first := env.doJSON(t, "GET", "/users/3", nil, token)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	decodeBody(t, first)

	assert.True(t, env.mr.Exists("user:3"))

	// No further query expectation: the second read must come from Redis.
	second := env.doJSON(t, "GET", "/users/3", nil, token)
	assert.Equal(t, http.StatusOK, second.StatusCode)
	result := decodeBody(t, second)
	assert.Equal(t, "User found (from cache)", result["message"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestListUsersAsDeveloperReturnsOwnRecord(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "developer"))

	resp := env.doJSON(t, "GET", "/users/", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["id"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestListUsersAsManagerReturnsAll(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 2, "manager")

	env.mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, role FROM users ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(1, "Admin One", "one@example.com", "admin").
			AddRow(2, "Manager Two", "two@example.com", "manager"))

	resp := env.doJSON(t, "GET", "/users/", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	data := result["data"].([]interface{})
	assert.Len(t, data, 2)

	require.NoError(t, env.mock.ExpectationsWereMet())
}

// A developer smuggling a role into a self-update ends with the role
// unchanged while the other fields still apply.
func TestUpdateUserStripsRoleForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Old Name", "three@example.com", "developer"))
	env.mock.ExpectExec(regexp.QuoteMeta(updateUserQuery)).
		WithArgs("New Name", sqlmock.AnyArg(), "", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "New Name", "three@example.com", "developer"))

	resp := env.doJSON(t, "PUT", "/users/3", map[string]string{
		"full_name": "New Name",
		"password":  "newpass123",
		"role":      "admin",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "New Name", data["full_name"])
	assert.Equal(t, "developer", data["role"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUpdateUserEmptyBodyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "developer"))
	env.mock.ExpectExec(regexp.QuoteMeta(updateUserQuery)).
		WithArgs("", "", "", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "developer"))

	resp := env.doJSON(t, "PUT", "/users/3", map[string]string{}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "Dev Three", data["full_name"])
	assert.Equal(t, "developer", data["role"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUpdateUserForbiddenForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(9, "Dev Nine", "nine@example.com", "developer"))

	resp := env.doJSON(t, "PUT", "/users/9", map[string]string{
		"full_name": "Hijacked",
	}, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAdminCanChangeRole(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 1, "admin")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "developer"))
	env.mock.ExpectExec(regexp.QuoteMeta(updateUserQuery)).
		WithArgs("", "", "manager", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "manager"))

	resp := env.doJSON(t, "PUT", "/users/3", map[string]string{
		"role": "manager",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "manager", data["role"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAdminUpdateRejectsInvalidRole(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 1, "admin")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(3, "Dev Three", "three@example.com", "developer"))

	resp := env.doJSON(t, "PUT", "/users/3", map[string]string{
		"role": "boss",
	}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, "Invalid role", result["message"])

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	resp := env.doJSON(t, "DELETE", "/users/3", nil, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 1, "admin")

	t.Run("not found", func(t *testing.T) {
		env.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		resp := env.doJSON(t, "DELETE", "/users/99", nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("success returns no content", func(t *testing.T) {
		env.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp := env.doJSON(t, "DELETE", "/users/3", nil, token)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestMeReturnsNotFoundWhenDeletedMidSession(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, 3, "developer")

	env.mock.ExpectQuery(regexp.QuoteMeta(getUserQuery)).
		WithArgs(3).
		WillReturnError(noRows)

	resp := env.doJSON(t, "GET", "/users/me", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, env.mock.ExpectationsWereMet())
}
