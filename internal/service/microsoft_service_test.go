package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartverket/frisk-backend/pkg/msgraph"
)

// fakeGraphClient 替代 pkg/msgraph 的 HTTP 客户端。
type fakeGraphClient struct {
	groups map[string]msgraph.Group
	member map[string][]msgraph.Group
	err    error
}

func (c *fakeGraphClient) GetMemberGroups(ctx context.Context, userID string) ([]msgraph.Group, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.member[userID], nil
}

func (c *fakeGraphClient) GetGroup(ctx context.Context, groupID string) (*msgraph.Group, error) {
	if c.err != nil {
		return nil, c.err
	}
	group, ok := c.groups[groupID]
	if !ok {
		return nil, msgraph.ErrGroupNotFound
	}
	return &group, nil
}

func TestGetMemberGroupsMapsToTeams(t *testing.T) {
	graph := &fakeGraphClient{member: map[string][]msgraph.Group{
		"user-1": {{ID: "g1", DisplayName: "Team Eiendom"}, {ID: "g2", DisplayName: "Team Sjø"}},
	}}
	svc := NewMicrosoftService(graph, nil, 0)

	teams, err := svc.GetMemberGroups(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "g1", teams[0].ID)
	assert.Equal(t, "Team Eiendom", teams[0].DisplayName)
}

func TestGetGroupNotFoundMapsToErrTeamNotFound(t *testing.T) {
	svc := NewMicrosoftService(&fakeGraphClient{groups: map[string]msgraph.Group{}}, nil, 0)

	_, err := svc.GetGroup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestGetGroupPropagatesDirectoryErrors(t *testing.T) {
	graphErr := errors.New("graph unavailable")
	svc := NewMicrosoftService(&fakeGraphClient{err: graphErr}, nil, 0)

	_, err := svc.GetGroup(context.Background(), "g1")
	assert.ErrorIs(t, err, graphErr)
	assert.NotErrorIs(t, err, ErrTeamNotFound)
}

func TestGetGroupReturnsTeam(t *testing.T) {
	graph := &fakeGraphClient{groups: map[string]msgraph.Group{
		"g1": {ID: "g1", DisplayName: "Team Eiendom"},
	}}
	svc := NewMicrosoftService(graph, nil, 0)

	team, err := svc.GetGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", team.ID)
	assert.Equal(t, "Team Eiendom", team.DisplayName)
}
