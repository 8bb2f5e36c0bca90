package tasks_test

import (
	"context"
	"testing"

	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/tasks"
	"github.com/Nathan-Yinka/Project-management-application/internal/testutil"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMailer captures sent mail for assertions.
type recordingMailer struct {
	to      [][]string
	subject []string
	body    []string
}

func (m *recordingMailer) Send(to []string, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

func TestHandleOrganizationCreated(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	mailer := &recordingMailer{}
	handler := tasks.NewHandler(setup.DB, testutil.SilentLogger(), mailer)

	task, err := tasks.NewOrganizationCreatedTask(tasks.OrganizationCreatedPayload{
		OrganizationID: setup.Org.ID,
		CreatorID:      setup.User.ID,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleOrganizationCreated(context.Background(), task))

	require.Len(t, mailer.to, 1)
	assert.Equal(t, []string{setup.User.Email}, mailer.to[0])
	assert.Contains(t, mailer.body[0], setup.Org.Name)
	assert.Contains(t, mailer.body[0], "admin")
}

func TestHandleMemberAdded(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	member := testutil.CreateTestUser(t, setup.DB)
	testutil.AddTestMember(t, setup.DB, setup.Org, member, models.RoleMember)

	mailer := &recordingMailer{}
	handler := tasks.NewHandler(setup.DB, testutil.SilentLogger(), mailer)

	task, err := tasks.NewMemberAddedTask(tasks.MemberAddedPayload{
		UserID:         member.ID,
		OrganizationID: setup.Org.ID,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleMemberAdded(context.Background(), task))

	require.Len(t, mailer.to, 1)
	assert.Equal(t, []string{member.Email}, mailer.to[0])
	assert.Contains(t, mailer.body[0], setup.Org.Name)
}

func TestHandleInviteCreated(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	mailer := &recordingMailer{}
	handler := tasks.NewHandler(setup.DB, testutil.SilentLogger(), mailer)

	task, err := tasks.NewInviteCreatedTask(tasks.InviteCreatedPayload{
		Email:          "invited@example.com",
		OrganizationID: setup.Org.ID,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleInviteCreated(context.Background(), task))

	require.Len(t, mailer.to, 1)
	assert.Equal(t, []string{"invited@example.com"}, mailer.to[0])
	assert.Contains(t, mailer.body[0], setup.Org.Name)
}

func TestHandlers_InvalidPayload(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	handler := tasks.NewHandler(setup.DB, testutil.SilentLogger(), &recordingMailer{})

	task := asynq.NewTask(tasks.TypeOrganizationCreated, []byte("not json"))
	assert.Error(t, handler.HandleOrganizationCreated(context.Background(), task))

	task = asynq.NewTask(tasks.TypeMemberAdded, []byte("not json"))
	assert.Error(t, handler.HandleMemberAdded(context.Background(), task))

	task = asynq.NewTask(tasks.TypeInviteCreated, []byte("not json"))
	assert.Error(t, handler.HandleInviteCreated(context.Background(), task))
}
