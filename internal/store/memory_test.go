package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/store"
)

func newPersona(t *testing.T, s *store.Memory, userID, name string) *model.Persona {
	t.Helper()
	p, err := s.CreatePersona(context.Background(), userID, model.PersonaInput{
		Name:         name,
		Title:        "Engineer",
		Age:          30,
		SystemPrompt: "You are " + name + ".",
	})
	require.NoError(t, err)
	return p
}

func TestPersonaLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	p := newPersona(t, s, "user-1", "Alice")
	require.NotEmpty(t, p.ID)

	got, err := s.GetPersona(ctx, "user-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	// Other users cannot see it.
	_, err = s.GetPersona(ctx, "user-2", p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	updated, err := s.UpdatePersona(ctx, "user-1", p.ID, model.PersonaInput{Name: "Alicia"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "You are Alice.", updated.SystemPrompt, "an empty prompt in an update keeps the stored one")

	require.NoError(t, s.DeletePersona(ctx, "user-1", p.ID))
	_, err = s.GetPersona(ctx, "user-1", p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	list, err := s.ListPersonas(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPersonaForSnapshotIgnoresSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	p := newPersona(t, s, "user-1", "Alice")
	require.NoError(t, s.DeletePersona(ctx, "user-1", p.ID))

	got, err := s.PersonaForSnapshot(ctx, "user-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	// Ownership still applies.
	_, err = s.PersonaForSnapshot(ctx, "user-2", p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestGroupRosterExcludesDeleted(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	alice := newPersona(t, s, "user-1", "Alice")
	bob := newPersona(t, s, "user-1", "Bob")

	g, err := s.CreateGroup(ctx, "user-1", model.CreateGroupRequest{
		Name:       "Feedback Panel",
		PersonaIDs: []string{alice.ID, bob.ID},
	})
	require.NoError(t, err)
	require.Len(t, g.Members, 2)

	require.NoError(t, s.DeletePersona(ctx, "user-1", bob.ID))

	roster, err := s.GroupRoster(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1, "soft-deleted members are no longer eligible speakers")
	assert.Equal(t, "Alice", roster[0].Name)
}

func TestCreateGroupRejectsUnknownPersona(t *testing.T) {
	s := store.NewMemory()

	_, err := s.CreateGroup(context.Background(), "user-1", model.CreateGroupRequest{
		Name:       "Panel",
		PersonaIDs: []string{"missing"},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateThreadRequiresExactlyOneScope(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	alice := newPersona(t, s, "user-1", "Alice")

	_, err := s.CreateThread(ctx, "user-1", model.CreateThreadRequest{Title: "neither"})
	assert.Error(t, err)

	_, err = s.CreateThread(ctx, "user-1", model.CreateThreadRequest{
		Title:     "both",
		PersonaID: alice.ID,
		GroupID:   "group-1",
	})
	assert.Error(t, err)

	thread, err := s.CreateThread(ctx, "user-1", model.CreateThreadRequest{
		Title:     "just persona",
		PersonaID: alice.ID,
	})
	require.NoError(t, err)
	assert.False(t, thread.IsGroup())
}

func TestMessagesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	alice := newPersona(t, s, "user-1", "Alice")

	thread, err := s.CreateThread(ctx, "user-1", model.CreateThreadRequest{
		Title:     "chat",
		PersonaID: alice.ID,
	})
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := s.InsertMessage(ctx, thread.ID, model.SenderUser, c)
		require.NoError(t, err)
	}

	msgs, err := s.MessagesByThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, c := range contents {
		assert.Equal(t, c, msgs[i].Content)
	}

	// Each stored message carries a server-assigned identity.
	seen := map[string]bool{}
	for _, m := range msgs {
		assert.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestInsertMessageUnknownThread(t *testing.T) {
	s := store.NewMemory()
	_, err := s.InsertMessage(context.Background(), "missing", model.SenderUser, "hi")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestWorkplaceContextUpsert(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	wc, err := s.WorkplaceContext(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, wc, "absence is not an error")

	first, err := s.SaveWorkplaceContext(ctx, "user-1", model.WorkplaceContextInput{
		CompanyName: "Acme",
	})
	require.NoError(t, err)

	second, err := s.SaveWorkplaceContext(ctx, "user-1", model.WorkplaceContextInput{
		CompanyName: "Acme Corp",
		ProductName: "Paymaster",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "saving again replaces, never duplicates")
	assert.Equal(t, "Acme Corp", second.CompanyName)

	got, err := s.WorkplaceContext(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Paymaster", got.ProductName)
}

func TestPublicThreadSnapshot(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	pt, err := s.PublishThread(ctx, &model.PublicThread{
		ThreadID: "thread-1",
		Title:    "Shared chat",
		PersonaDetails: model.PersonaDetails{
			Name: "Alice",
		},
		Messages:  []model.Message{{ID: "m1", Sender: "user", Content: "hi"}},
		CreatedBy: "user-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pt.ID)

	got, err := s.GetPublicThread(ctx, pt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shared chat", got.Title)
	assert.Equal(t, "Alice", got.PersonaDetails.Name)

	existing, err := s.PublicThreadByThread(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, pt.ID, existing.ID)

	missing, err := s.PublicThreadByThread(ctx, "thread-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
