package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-agent/internal/domain"
)

// fakeRepo is an in-memory Repository double. It mirrors the real adapter's
// contract: absent users get the default collection.
type fakeRepo struct {
	data      map[string][]domain.Conversation
	loadErr   error
	saveErr   error
	saveCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{data: map[string][]domain.Conversation{}}
}

func (f *fakeRepo) Load(_ context.Context, userID string) ([]domain.Conversation, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	convs, ok := f.data[userID]
	if !ok || len(convs) == 0 {
		return domain.DefaultCollection(), nil
	}
	out := make([]domain.Conversation, len(convs))
	copy(out, convs)
	return out, nil
}

func (f *fakeRepo) Save(_ context.Context, userID string, convs []domain.Conversation) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	snapshot := make([]domain.Conversation, len(convs))
	copy(snapshot, convs)
	f.data[userID] = snapshot
	return nil
}

func newTestStore(t *testing.T, repo Repository) *Store {
	t.Helper()
	s, err := New(repo)
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background(), "alice"))
	return s
}

func TestNew_NilRepository(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestInitialize_EmptyStore_YieldsDefaultCollection(t *testing.T) {
	s := newTestStore(t, newFakeRepo())
	require.Len(t, s.Conversations(), 1)
	require.Equal(t, "Conversation 1", s.Selected().Name)
	require.Empty(t, s.Selected().Messages)
	require.Equal(t, 0, s.SelectedIndex())
}

func TestInitialize_LoadError(t *testing.T) {
	repo := newFakeRepo()
	repo.loadErr = errors.New("disk gone")
	s, err := New(repo)
	require.NoError(t, err)
	err = s.Initialize(context.Background(), "alice")
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk gone")
}

func TestInitialize_SwitchingUsers_KeepsCollectionsIndependent(t *testing.T) {
	repo := newFakeRepo()
	s := newTestStore(t, repo)

	require.NoError(t, s.AppendMessage(context.Background(), domain.Message{Sender: domain.SenderUser, Text: "alice's turn"}))

	require.NoError(t, s.Initialize(context.Background(), "guest"))
	require.Empty(t, s.Selected().Messages)
	require.NoError(t, s.AppendMessage(context.Background(), domain.Message{Sender: domain.SenderUser, Text: "guest's turn"}))

	require.NoError(t, s.Initialize(context.Background(), "alice"))
	require.Len(t, s.Selected().Messages, 1)
	require.Equal(t, "alice's turn", s.Selected().Messages[0].Text)
	require.Equal(t, 0, s.SelectedIndex())
}

func TestSelect_InRange(t *testing.T) {
	s := newTestStore(t, newFakeRepo())
	require.NoError(t, s.CreateConversation(context.Background()))
	s.Select(0)
	require.Equal(t, 0, s.SelectedIndex())
	s.Select(1)
	require.Equal(t, 1, s.SelectedIndex())
}

func TestSelect_OutOfRange_IsNoOp(t *testing.T) {
	s := newTestStore(t, newFakeRepo())
	s.Select(-1)
	require.Equal(t, 0, s.SelectedIndex())
	s.Select(1)
	require.Equal(t, 0, s.SelectedIndex())
}

func TestCreateConversation_AppendsAndSelects(t *testing.T) {
	repo := newFakeRepo()
	s := newTestStore(t, repo)

	require.NoError(t, s.CreateConversation(context.Background()))
	require.Len(t, s.Conversations(), 2)
	require.Equal(t, len(s.Conversations())-1, s.SelectedIndex())
	require.Equal(t, "Conversation 2", s.Selected().Name)
	require.Empty(t, s.Selected().Messages)
	require.Equal(t, 1, repo.saveCalls)
}

func TestDeleteConversation_LastRemaining_RestoresDefault(t *testing.T) {
	s := newTestStore(t, newFakeRepo())
	require.NoError(t, s.AppendMessage(context.Background(), domain.Message{Sender: domain.SenderUser, Text: "hello"}))

	require.NoError(t, s.DeleteConversation(context.Background(), 0))
	require.Len(t, s.Conversations(), 1)
	require.Equal(t, "Conversation 1", s.Selected().Name)
	require.Empty(t, s.Selected().Messages)
	require.Equal(t, 0, s.SelectedIndex())
}

func TestDeleteConversation_SelectedIndexRecompute(t *testing.T) {
	setup := func(t *testing.T) *Store {
		s := newTestStore(t, newFakeRepo())
		require.NoError(t, s.CreateConversation(context.Background()))
		require.NoError(t, s.CreateConversation(context.Background()))
		return s // three conversations, index 2 selected
	}

	t.Run("deleting the selected conversation resets selection", func(t *testing.T) {
		s := setup(t)
		require.NoError(t, s.DeleteConversation(context.Background(), 2))
		require.Equal(t, 0, s.SelectedIndex())
		require.Len(t, s.Conversations(), 2)
	})

	t.Run("deleting before the selection shifts it down", func(t *testing.T) {
		s := setup(t)
		require.NoError(t, s.DeleteConversation(context.Background(), 0))
		require.Equal(t, 1, s.SelectedIndex())
		require.Equal(t, "Conversation 3", s.Selected().Name)
	})

	t.Run("deleting after the selection leaves it unchanged", func(t *testing.T) {
		s := setup(t)
		s.Select(0)
		require.NoError(t, s.DeleteConversation(context.Background(), 2))
		require.Equal(t, 0, s.SelectedIndex())
		require.Equal(t, "Conversation 1", s.Selected().Name)
	})
}

func TestDeleteConversation_OutOfRange_IsNoOp(t *testing.T) {
	repo := newFakeRepo()
	s := newTestStore(t, repo)
	require.NoError(t, s.DeleteConversation(context.Background(), 5))
	require.NoError(t, s.DeleteConversation(context.Background(), -1))
	require.Len(t, s.Conversations(), 1)
	require.Zero(t, repo.saveCalls)
}

func TestAppendMessage_AppendsToSelected(t *testing.T) {
	s := newTestStore(t, newFakeRepo())
	require.NoError(t, s.CreateConversation(context.Background()))

	msg := domain.Message{Sender: domain.SenderUser, Text: "hello"}
	require.NoError(t, s.AppendMessage(context.Background(), msg))
	require.Equal(t, []domain.Message{msg}, s.Selected().Messages)
	require.Empty(t, s.Conversations()[0].Messages)
}

func TestMutations_PersistAfterEachCommit(t *testing.T) {
	repo := newFakeRepo()
	s := newTestStore(t, repo)

	require.NoError(t, s.CreateConversation(context.Background()))
	require.NoError(t, s.AppendMessage(context.Background(), domain.Message{Sender: domain.SenderUser, Text: "hi"}))
	require.NoError(t, s.DeleteConversation(context.Background(), 0))
	require.Equal(t, 3, repo.saveCalls)

	persisted := repo.data["alice"]
	require.Equal(t, s.Conversations(), persisted)
}

func TestAppendMessage_PersistFailure_KeepsInMemoryMutation(t *testing.T) {
	repo := newFakeRepo()
	s := newTestStore(t, repo)
	repo.saveErr = errors.New("disk full")

	err := s.AppendMessage(context.Background(), domain.Message{Sender: domain.SenderUser, Text: "hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	// The optimistic mutation stands; only durability lagged.
	require.Len(t, s.Selected().Messages, 1)
}
