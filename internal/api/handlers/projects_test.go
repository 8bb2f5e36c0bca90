package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Nathan-Yinka/Project-management-application/internal/api/dto"
	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectEndpoints_Create(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	member := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, member, models.RoleMember)

	t.Run("admin creates a project", func(t *testing.T) {
		assigneeID := member.ID.String()
		req := testutil.AuthenticatedRequest(t, "POST", "/project/", dto.CreateProjectRequest{
			Name:         "API Project",
			Description:  "made over http",
			Organization: setup.Org.ID.String(),
			AssignedTo:   &assigneeID,
		}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusCreated)

		var resp dto.ProjectResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, "API Project", resp.Name)
		assert.Equal(t, "in_progress", resp.Status)
		assert.Equal(t, "low", resp.Priority)
		require.NotNil(t, resp.AssignedTo)
		assert.Equal(t, assigneeID, *resp.AssignedTo)
		assert.Contains(t, resp.UserPermissions, authz.CapDeleteProject)
	})

	t.Run("member without add_project is forbidden", func(t *testing.T) {
		memberToken := testutil.GenerateTestToken(t, setup.JWTService, member)
		req := testutil.AuthenticatedRequest(t, "POST", "/project/", dto.CreateProjectRequest{
			Name:         "Denied",
			Organization: setup.Org.ID.String(),
		}, memberToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("assignee outside the organization is 400", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, setup.DB)
		strangerID := stranger.ID.String()
		req := testutil.AuthenticatedRequest(t, "POST", "/project/", dto.CreateProjectRequest{
			Name:         "Bad assignee",
			Organization: setup.Org.ID.String(),
			AssignedTo:   &strangerID,
		}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusBadRequest)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Contains(t, resp.Details, "assigned_to")
	})

	t.Run("unknown organization is 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/project/", dto.CreateProjectRequest{
			Name:         "Orphan",
			Organization: setup.User.ID.String(),
		}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusNotFound)
	})
}

func TestProjectEndpoints_List(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	member := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, member, models.RoleMember)
	memberToken := testutil.GenerateTestToken(t, setup.JWTService, member)

	assigned := testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, &member.ID)
	testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, nil)

	// listPage decodes the paginated envelope into typed project responses.
	listPage := func(t *testing.T, rec *httptest.ResponseRecorder) (dto.PaginatedResponse, []dto.ProjectResponse) {
		t.Helper()
		var page dto.PaginatedResponse
		testutil.ParseJSONResponse(t, rec, &page)
		raw, err := json.Marshal(page.Data)
		require.NoError(t, err)
		var items []dto.ProjectResponse
		require.NoError(t, json.Unmarshal(raw, &items))
		return page, items
	}

	t.Run("admin sees every project", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/project/?organization_id="+setup.Org.ID.String(), nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		page, items := listPage(t, rec)
		assert.Len(t, items, 2)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("member sees only visible projects", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/project/?organization_id="+setup.Org.ID.String(), nil, memberToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		_, items := listPage(t, rec)
		require.Len(t, items, 1)
		assert.Equal(t, assigned.ID.String(), items[0].ID)
	})

	t.Run("missing organization_id is 400", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/project/", nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("search narrows the result", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET",
			"/project/?organization_id="+setup.Org.ID.String()+"&search="+url.QueryEscape(assigned.Name), nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		_, items := listPage(t, rec)
		require.Len(t, items, 1)
		assert.Equal(t, assigned.ID.String(), items[0].ID)
	})

	t.Run("per_page pages the result", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET",
			"/project/?organization_id="+setup.Org.ID.String()+"&page=1&per_page=1", nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		page, items := listPage(t, rec)
		assert.Len(t, items, 1)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, 2, page.TotalPages)
	})
}

func TestProjectEndpoints_GetUpdateDelete(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	assignee := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, assignee, models.RoleMember)
	assigneeToken := testutil.GenerateTestToken(t, setup.JWTService, assignee)

	project := testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, &assignee.ID)

	t.Run("detail embeds comments and permissions", func(t *testing.T) {
		require.NoError(t, setup.DB.Create(&models.Comment{
			ProjectID: project.ID,
			UserID:    setup.User.ID,
			Content:   "kickoff note",
		}).Error)

		req := testutil.AuthenticatedRequest(t, "GET", "/project/"+project.ID.String(), nil, assigneeToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		var resp dto.ProjectResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Contains(t, resp.UserPermissions, authz.CapViewProject)
		assert.NotContains(t, resp.UserPermissions, authz.CapDeleteProject)
		require.Len(t, resp.Comments, 1)
		assert.Equal(t, "kickoff note", resp.Comments[0].Content)
	})

	t.Run("assignee may not change the project", func(t *testing.T) {
		name := "Renamed"
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/"+project.ID.String(),
			map[string]interface{}{"name": name}, assigneeToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("admin updates fields", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/"+project.ID.String(),
			map[string]interface{}{"name": "Renamed", "priority": "high"}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		var resp dto.ProjectResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, "Renamed", resp.Name)
		assert.Equal(t, "high", resp.Priority)
	})

	t.Run("explicit null clears the assignee", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/"+project.ID.String(),
			map[string]interface{}{"assigned_to": nil}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		var resp dto.ProjectResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Nil(t, resp.AssignedTo)
	})

	t.Run("assignee may not delete", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "DELETE", "/project/"+project.ID.String(), nil, assigneeToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("admin deletes", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "DELETE", "/project/"+project.ID.String(), nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusNoContent)
	})

	t.Run("deleted project is gone", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/project/"+project.ID.String(), nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusNotFound)
	})
}

func TestProjectEndpoints_UpdateStatus(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	assignee := testutil.CreateTestUser(t, setup.DB)
	bystander := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, assignee, models.RoleMember)
	testutil.AddTestMember(t, setup.DB, setup.Org, bystander, models.RoleMember)

	project := testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, &assignee.ID)

	t.Run("assignee updates the status", func(t *testing.T) {
		token := testutil.GenerateTestToken(t, setup.JWTService, assignee)
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/update-status/"+project.ID.String(),
			dto.UpdateProjectStatusRequest{
				Organization: setup.Org.ID.String(),
				Status:       "completed",
			}, token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		var resp dto.ProjectResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, "completed", resp.Status)
	})

	t.Run("unrelated member is forbidden", func(t *testing.T) {
		token := testutil.GenerateTestToken(t, setup.JWTService, bystander)
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/update-status/"+project.ID.String(),
			dto.UpdateProjectStatusRequest{
				Organization: setup.Org.ID.String(),
				Status:       "not_started",
			}, token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("missing organization field is 400", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/update-status/"+project.ID.String(),
			map[string]interface{}{"status": "completed"}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusBadRequest)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, "This field is required.", resp.Details["organization"])
	})

	t.Run("mismatched organization is 400", func(t *testing.T) {
		other := testutil.CreateTestOrg(t, setup.DB, setup.User)
		req := testutil.AuthenticatedRequest(t, "PATCH", "/project/update-status/"+project.ID.String(),
			dto.UpdateProjectStatusRequest{
				Organization: other.ID.String(),
				Status:       "completed",
			}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestProjectEndpoints_AddComment(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	assignee := testutil.CreateTestUser(t, setup.DB)
	bystander := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, assignee, models.RoleMember)
	testutil.AddTestMember(t, setup.DB, setup.Org, bystander, models.RoleMember)

	project := testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, &assignee.ID)

	t.Run("assignee comments", func(t *testing.T) {
		token := testutil.GenerateTestToken(t, setup.JWTService, assignee)
		req := testutil.AuthenticatedRequest(t, "POST", "/project/"+project.ID.String()+"/add-comment",
			dto.AddCommentRequest{Content: "looks good"}, token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusCreated)

		var resp dto.CommentResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, "looks good", resp.Content)
		assert.Equal(t, assignee.ID.String(), resp.User)
	})

	t.Run("member without can_comment is forbidden", func(t *testing.T) {
		token := testutil.GenerateTestToken(t, setup.JWTService, bystander)
		req := testutil.AuthenticatedRequest(t, "POST", "/project/"+project.ID.String()+"/add-comment",
			dto.AddCommentRequest{Content: "drive-by"}, token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("empty content is 400", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/project/"+project.ID.String()+"/add-comment",
			dto.AddCommentRequest{}, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})
}
