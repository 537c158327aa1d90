package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createProject(t *testing.T, ts *testServer, token, name string) *Project {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/projects", token, CreateProjectRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p Project
	decode(t, rec, &p)
	return &p
}

func TestCreateProjectDefaults(t *testing.T) {
	ts := setupTestServer(t)

	p := createProject(t, ts, ts.managerToken, "Q3 Rollout")
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Q3 Rollout", p.Name)
	assert.Equal(t, ProjectActive, p.Status)
	assert.Nil(t, p.OwnerID)
}

func TestCreateProjectInvalidStatus(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/projects", ts.adminToken, CreateProjectRequest{
		Name:   "X",
		Status: "paused",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectMutationRoles(t *testing.T) {
	ts := setupTestServer(t)

	// admin, manager, and agent can write
	for _, token := range []string{ts.adminToken, ts.managerToken, ts.agentToken} {
		rec := ts.do(t, http.MethodPost, "/api/v1/projects", token, CreateProjectRequest{Name: "P"})
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	// viewer cannot
	rec := ts.do(t, http.MethodPost, "/api/v1/projects", ts.viewerToken, CreateProjectRequest{Name: "P"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// but viewer can read
	rec = ts.do(t, http.MethodGet, "/api/v1/projects", ts.viewerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []Project
	decode(t, rec, &projects)
	assert.Len(t, projects, 3)
}

func TestUpdateProject(t *testing.T) {
	ts := setupTestServer(t)
	p := createProject(t, ts, ts.adminToken, "Before")

	rec := ts.do(t, http.MethodPut, "/api/v1/projects/1", ts.adminToken, UpdateProjectRequest{
		Name:   strPtr("After"),
		Status: projectStatusP(ProjectArchived),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Project
	decode(t, rec, &updated)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, ProjectArchived, updated.Status)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt) || updated.UpdatedAt.Equal(p.UpdatedAt))
}

func TestUpdateProjectNotFound(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/projects/42", ts.adminToken, UpdateProjectRequest{
		Name: strPtr("X"),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProjectCascadesTickets(t *testing.T) {
	ts := setupTestServer(t)
	p := createProject(t, ts, ts.adminToken, "Doomed")

	rec := ts.do(t, http.MethodPost, "/api/v1/tickets", ts.adminToken, CreateTicketRequest{
		ProjectID: p.ID,
		Title:     "Orphan-to-be",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/projects/1", ts.adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int
	require.NoError(t, ts.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count))
	assert.Zero(t, count)
}

func projectStatusP(s ProjectStatus) *ProjectStatus { return &s }
