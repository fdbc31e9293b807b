package policy

import (
	"testing"

	"taskboard/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	admin     = models.Identity{ID: 1, Role: models.RoleAdmin}
	manager   = models.Identity{ID: 2, Role: models.RoleManager}
	developer = models.Identity{ID: 3, Role: models.RoleDeveloper}
)

func TestRoleChecks(t *testing.T) {
	assert.True(t, IsAdmin(admin))
	assert.False(t, IsAdmin(manager))
	assert.False(t, IsAdmin(developer))

	assert.True(t, IsManager(manager))
	assert.False(t, IsManager(admin))
}

func TestCanListAllUsers(t *testing.T) {
	assert.True(t, CanListAllUsers(admin))
	assert.True(t, CanListAllUsers(manager))
	assert.False(t, CanListAllUsers(developer))
}

func TestCanViewUser(t *testing.T) {
	assert.True(t, CanViewUser(admin, 99))
	assert.True(t, CanViewUser(manager, 99))
	assert.True(t, CanViewUser(developer, developer.ID))
	assert.False(t, CanViewUser(developer, 99))
}

func TestCanCreateAndDeleteUser(t *testing.T) {
	assert.True(t, CanCreateUser(admin))
	assert.False(t, CanCreateUser(manager))
	assert.False(t, CanCreateUser(developer))

	assert.True(t, CanDeleteUser(admin))
	assert.False(t, CanDeleteUser(manager))
	assert.False(t, CanDeleteUser(developer))
}

func TestCanUpdateUser(t *testing.T) {
	assert.True(t, CanUpdateUser(admin, 99))
	assert.True(t, CanUpdateUser(developer, developer.ID))
	assert.False(t, CanUpdateUser(developer, 99))
	assert.False(t, CanUpdateUser(manager, 99))
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, CanAssignRole(admin))
	assert.False(t, CanAssignRole(manager))
	assert.False(t, CanAssignRole(developer))
}
