package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/repository"
)

// fakeMetadataRepo 是 MetadataRepository 的内存实现。
type fakeMetadataRepo struct {
	nextEntryID uint
	nextKeyID   uint
	keys        map[string]uint
	entries     map[uint]*model.FunctionMetadataEntry

	indicators []model.Function
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{
		nextEntryID: 1,
		nextKeyID:   1,
		keys:        make(map[string]uint),
		entries:     make(map[uint]*model.FunctionMetadataEntry),
	}
}

func (r *fakeMetadataRepo) WithTx(fn func(repository.MetadataRepository) error) error {
	return fn(r)
}

func (r *fakeMetadataRepo) FindByID(id uint) (*model.FunctionMetadataEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeMetadataRepo) Find(functionID *uint, key, value *string) ([]model.FunctionMetadataEntry, error) {
	var out []model.FunctionMetadataEntry
	for _, entry := range r.entries {
		if functionID != nil && entry.FunctionID != *functionID {
			continue
		}
		if key != nil && entry.Key != strings.ToLower(*key) {
			continue
		}
		if value != nil && entry.Value != *value {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (r *fakeMetadataRepo) FindAllEntries() ([]model.FunctionMetadataEntry, error) {
	var out []model.FunctionMetadataEntry
	for _, entry := range r.entries {
		out = append(out, *entry)
	}
	return out, nil
}

func (r *fakeMetadataRepo) FindKeys(search string) ([]string, error) {
	var out []string
	for key := range r.keys {
		if search == "" || strings.Contains(key, strings.ToLower(search)) {
			out = append(out, key)
		}
	}
	return out, nil
}

func (r *fakeMetadataRepo) EnsureKey(key string) (uint, error) {
	if id, ok := r.keys[key]; ok {
		return id, nil
	}
	id := r.nextKeyID
	r.nextKeyID++
	r.keys[key] = id
	return id, nil
}

func (r *fakeMetadataRepo) Create(m *model.FunctionMetadata) error {
	var key string
	for k, id := range r.keys {
		if id == m.KeyID {
			key = k
			break
		}
	}
	m.ID = r.nextEntryID
	r.nextEntryID++
	r.entries[m.ID] = &model.FunctionMetadataEntry{
		ID:         m.ID,
		FunctionID: m.FunctionID,
		Key:        key,
		Value:      m.Value,
	}
	return nil
}

func (r *fakeMetadataRepo) UpdateValue(id uint, value string) (bool, error) {
	entry, ok := r.entries[id]
	if !ok {
		return false, nil
	}
	entry.Value = value
	return true, nil
}

func (r *fakeMetadataRepo) Delete(id uint) (bool, error) {
	if _, ok := r.entries[id]; !ok {
		return false, nil
	}
	delete(r.entries, id)
	return true, nil
}

func (r *fakeMetadataRepo) FindIndicators(key string, value *string, path string) ([]model.Function, error) {
	return r.indicators, nil
}

var _ repository.MetadataRepository = (*fakeMetadataRepo)(nil)

// fakeMicrosoft 是 MicrosoftService 的内存替身。
type fakeMicrosoft struct {
	groups       map[string]model.Team
	memberGroups map[string][]model.Team
	err          error
	groupCalls   int
}

func newFakeMicrosoft() *fakeMicrosoft {
	return &fakeMicrosoft{
		groups:       make(map[string]model.Team),
		memberGroups: make(map[string][]model.Team),
	}
}

func (m *fakeMicrosoft) GetMemberGroups(ctx context.Context, userID string) ([]model.Team, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.memberGroups[userID], nil
}

func (m *fakeMicrosoft) GetGroup(ctx context.Context, groupID string) (*model.Team, error) {
	m.groupCalls++
	if m.err != nil {
		return nil, m.err
	}
	team, ok := m.groups[groupID]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func newMetadataFixture() (*fakeMetadataRepo, *fakeFunctionRepo, *fakeMicrosoft, MetadataService) {
	metadataRepo := newFakeMetadataRepo()
	functionRepo := newFakeFunctionRepo()
	microsoft := newFakeMicrosoft()
	svc := NewMetadataService(metadataRepo, functionRepo, microsoft)
	return metadataRepo, functionRepo, microsoft, svc
}

func TestAddMetadataNormalizesKey(t *testing.T) {
	metadataRepo, _, _, svc := newMetadataFixture()

	err := svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "  Criticality ", Value: "high"})
	require.NoError(t, err)

	entries, err := svc.GetMetadata(nil, strPtr("criticality"), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "criticality", entries[0].Key)
	assert.Equal(t, "high", entries[0].Value)
	assert.Contains(t, metadataRepo.keys, "criticality")
}

func TestAddMetadataRejectsEmptyKey(t *testing.T) {
	_, _, _, svc := newMetadataFixture()

	err := svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "   ", Value: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddMetadataTeamValueMustResolveInDirectory(t *testing.T) {
	_, _, microsoft, svc := newMetadataFixture()
	microsoft.groups["group-1"] = model.Team{ID: "group-1", DisplayName: "Team Rocket"}

	err := svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "team", Value: "group-1"})
	assert.NoError(t, err)

	err = svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "Team", Value: "no-such-group"})
	assert.ErrorIs(t, err, ErrValidation)
}

// 目录不可达时拒绝写入，而不是放行未经校验的值。
func TestAddMetadataTeamFailsClosedOnDirectoryError(t *testing.T) {
	metadataRepo, _, microsoft, svc := newMetadataFixture()
	microsoft.err = errors.New("graph timeout")

	err := svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "team", Value: "group-1"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, metadataRepo.entries)
}

func TestAddMetadataNonTeamKeySkipsDirectory(t *testing.T) {
	_, _, microsoft, svc := newMetadataFixture()
	microsoft.err = errors.New("graph down")

	err := svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "owner", Value: "anyone"})
	assert.NoError(t, err)
	assert.Zero(t, microsoft.groupCalls)
}

func TestGetMetadataRequiresFunctionIDOrKey(t *testing.T) {
	_, _, _, svc := newMetadataFixture()

	_, err := svc.GetMetadata(nil, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

// 更新只改值，键为 team 时也不做目录再校验。
func TestUpdateMetadataValueSkipsRevalidation(t *testing.T) {
	metadataRepo, _, microsoft, svc := newMetadataFixture()
	microsoft.groups["group-1"] = model.Team{ID: "group-1"}
	require.NoError(t, svc.AddMetadata(context.Background(), 1, model.CreateMetadataRequest{Key: "team", Value: "group-1"}))

	microsoft.err = errors.New("graph down")
	var entryID uint
	for id := range metadataRepo.entries {
		entryID = id
	}

	err := svc.UpdateMetadataValue(entryID, "unvalidated-value")
	require.NoError(t, err)
	assert.Equal(t, "unvalidated-value", metadataRepo.entries[entryID].Value)
}

func TestUpdateMetadataValueNotFound(t *testing.T) {
	_, _, _, svc := newMetadataFixture()

	err := svc.UpdateMetadataValue(999, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMetadataNotFound(t *testing.T) {
	_, _, _, svc := newMetadataFixture()

	err := svc.DeleteMetadata(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMetadataByIDNotFound(t *testing.T) {
	_, _, _, svc := newMetadataFixture()

	_, err := svc.GetMetadataByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetIndicatorsUnknownFunction(t *testing.T) {
	_, _, _, svc := newMetadataFixture()

	_, err := svc.GetIndicators("team", nil, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetIndicatorsResolvesFunctionPath(t *testing.T) {
	metadataRepo, _, _, svc := newMetadataFixture()
	metadataRepo.indicators = []model.Function{{ID: 1, Name: "Kartverket", Path: "1"}}

	functions, err := svc.GetIndicators("team", nil, model.RootFunctionID)
	require.NoError(t, err)
	require.Len(t, functions, 1)
	assert.Equal(t, uint(1), functions[0].ID)
}

func strPtr(s string) *string {
	return &s
}
