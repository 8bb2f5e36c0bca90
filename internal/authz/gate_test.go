package authz_test

import (
	"testing"

	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Authorize(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	ctx := testutil.TestContext(t)
	gate := authz.NewGate(setup.DB)

	member := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, member, models.RoleMember)
	stranger := testutil.CreateTestUser(t, setup.DB)

	t.Run("admin passes capability check", func(t *testing.T) {
		err := gate.Authorize(ctx, setup.User.ID, setup.Org, authz.Requirement{
			Capability: authz.CapAddUser,
		})
		assert.NoError(t, err)
	})

	t.Run("member without the capability is denied", func(t *testing.T) {
		err := gate.Authorize(ctx, member.ID, setup.Org, authz.Requirement{
			Capability: authz.CapAddUser,
		})
		assert.ErrorIs(t, err, authz.ErrMissingCapability)
	})

	t.Run("non-member is denied before capability evaluation", func(t *testing.T) {
		err := gate.Authorize(ctx, stranger.ID, setup.Org, authz.Requirement{
			Capability: authz.CapViewOrganization,
		})
		assert.ErrorIs(t, err, authz.ErrNotMember)
	})

	t.Run("self-action bypasses the capability check", func(t *testing.T) {
		// A member removing themselves needs no remove_user capability.
		err := gate.Authorize(ctx, member.ID, setup.Org, authz.Requirement{
			Capability: authz.CapRemoveUser,
			SelfUserID: member.ID,
		})
		assert.NoError(t, err)
	})

	t.Run("self-action does not help against other targets", func(t *testing.T) {
		err := gate.Authorize(ctx, member.ID, setup.Org, authz.Requirement{
			Capability: authz.CapRemoveUser,
			SelfUserID: setup.User.ID,
		})
		assert.ErrorIs(t, err, authz.ErrMissingCapability)
	})

	t.Run("secondary objects widen the effective set", func(t *testing.T) {
		project := testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, &member.ID)

		err := gate.Authorize(ctx, member.ID, setup.Org, authz.Requirement{
			Capability: authz.CapComment,
			Objects:    []authz.GrantObject{authz.ProjectObject(project)},
		})
		assert.NoError(t, err)

		// Without the project in scope the member has no comment capability.
		err = gate.Authorize(ctx, member.ID, setup.Org, authz.Requirement{
			Capability: authz.CapComment,
		})
		assert.ErrorIs(t, err, authz.ErrMissingCapability)
	})
}

func TestGate_AuthorizeObject(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	ctx := testutil.TestContext(t)
	gate := authz.NewGate(setup.DB)

	assignee := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, assignee, models.RoleMember)
	project := testutil.CreateTestProject(t, setup.DB, setup.Org, setup.User, &assignee.ID)

	t.Run("assignee may update status", func(t *testing.T) {
		err := gate.AuthorizeObject(ctx, assignee.ID, authz.ProjectObject(project), authz.CapUpdateProjectStatus)
		assert.NoError(t, err)
	})

	t.Run("assignee may not change the project", func(t *testing.T) {
		err := gate.AuthorizeObject(ctx, assignee.ID, authz.ProjectObject(project), authz.CapChangeProject)
		assert.ErrorIs(t, err, authz.ErrMissingCapability)
	})

	t.Run("admin passes through the group grant", func(t *testing.T) {
		err := gate.AuthorizeObject(ctx, setup.User.ID, authz.ProjectObject(project), authz.CapUpdateProjectStatus)
		assert.NoError(t, err)
	})
}

func TestSet_List(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	ctx := testutil.TestContext(t)
	eval := authz.NewEvaluator(setup.DB)

	set, err := eval.PermissionsFor(ctx, setup.User.ID, setup.Org)
	require.NoError(t, err)

	list := set.List()
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1], list[i], "List must be sorted")
	}
}
