package discovery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"thoreinstein.com/gitmoto/pkg/discovery"
	"thoreinstein.com/gitmoto/pkg/discovery/mocks"
)

func TestEngine_WorktreeIsNotListed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	ctx := context.Background()

	remotes := []discovery.Remote{{Name: "origin", URL: "git@example.com:me/repo.git"}}

	backend.EXPECT().Kind().Return("mock").AnyTimes()
	gomock.InOrder(
		backend.EXPECT().IsPrimaryWorktree(gomock.Any(), "/src").Return(false),
		backend.EXPECT().ListSubdirectories(gomock.Any(), "/src").Return([]string{"/src/repo", "/src/plain"}, nil),
		backend.EXPECT().IsPrimaryWorktree(gomock.Any(), "/src/repo").Return(true),
		backend.EXPECT().ListRemotes(gomock.Any(), "/src/repo").Return(remotes),
		backend.EXPECT().IsPrimaryWorktree(gomock.Any(), "/src/plain").Return(false),
		backend.EXPECT().ListSubdirectories(gomock.Any(), "/src/plain").Return(nil, nil),
		backend.EXPECT().Close().Return(nil),
	)
	// /src/repo is never listed: gomock fails on any unexpected call.

	var found []discovery.Repository
	for res := range discovery.NewEngine(backend).Walk(ctx, []string{"/src"}) {
		require.NoError(t, res.Warning)
		found = append(found, *res.Repository)
	}

	require.Len(t, found, 1)
	assert.Equal(t, "/src/repo", found[0].Path)
	assert.Equal(t, "mock", found[0].Backend)
	assert.Equal(t, remotes, found[0].Remotes)
}

func TestEngine_CloseErrorDoesNotFailWalk(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	backend.EXPECT().Kind().Return("mock").AnyTimes()
	backend.EXPECT().IsPrimaryWorktree(gomock.Any(), "/r").Return(true)
	backend.EXPECT().ListRemotes(gomock.Any(), "/r").Return(nil)
	backend.EXPECT().Close().Return(errors.New("connection reset"))

	engine := discovery.NewEngine(backend)
	n := 0
	for res := range engine.Walk(context.Background(), []string{"/r"}) {
		require.NotNil(t, res.Repository)
		n++
	}

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, engine.Stats().Found)
	assert.Equal(t, 1, engine.Stats().Visited)
}
