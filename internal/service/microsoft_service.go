package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/pkg/log"
	"github.com/kartverket/frisk-backend/pkg/msgraph"
)

// ErrTeamNotFound 表示目录中不存在请求的组。
var ErrTeamNotFound = errors.New("team not found")

// MicrosoftService 定义了对外部团队目录（Microsoft Graph）的查询接口。
// 它是授权解析和 team 元数据校验共同依赖的协作方。
type MicrosoftService interface {
	// GetMemberGroups 返回用户所属的全部组。
	GetMemberGroups(ctx context.Context, userID string) ([]model.Team, error)
	// GetGroup 按 ID 获取单个组，不存在时返回 ErrTeamNotFound。
	GetGroup(ctx context.Context, groupID string) (*model.Team, error)
}

// GraphClient 是 pkg/msgraph 客户端满足的最小接口，便于测试替换。
type GraphClient interface {
	GetMemberGroups(ctx context.Context, userID string) ([]msgraph.Group, error)
	GetGroup(ctx context.Context, groupID string) (*msgraph.Group, error)
}

type microsoftService struct {
	graph    GraphClient
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewMicrosoftService 创建一个带 Redis 缓存的目录服务。
// 目录调用在请求的关键路径上（写校验和读访问检查），缓存只为降低
// Graph 压力，命中与否不改变失败语义；rdb 为 nil 时直连 Graph。
func NewMicrosoftService(graph GraphClient, rdb *redis.Client, cacheTTL time.Duration) MicrosoftService {
	return &microsoftService{graph: graph, rdb: rdb, cacheTTL: cacheTTL}
}

// GetMemberGroups 返回用户所属的全部组，优先读缓存。
func (s *microsoftService) GetMemberGroups(ctx context.Context, userID string) ([]model.Team, error) {
	cacheKey := "msgraph:member_groups:" + userID

	var cached []model.Team
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	groups, err := s.graph.GetMemberGroups(ctx, userID)
	if err != nil {
		return nil, err
	}

	teams := make([]model.Team, 0, len(groups))
	for _, g := range groups {
		teams = append(teams, model.Team{ID: g.ID, DisplayName: g.DisplayName})
	}

	s.writeCache(ctx, cacheKey, teams)
	return teams, nil
}

// GetGroup 按 ID 获取单个组，优先读缓存。
func (s *microsoftService) GetGroup(ctx context.Context, groupID string) (*model.Team, error) {
	cacheKey := "msgraph:group:" + groupID

	var cached model.Team
	if s.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	group, err := s.graph.GetGroup(ctx, groupID)
	if errors.Is(err, msgraph.ErrGroupNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, groupID)
	}
	if err != nil {
		return nil, err
	}

	team := model.Team{ID: group.ID, DisplayName: group.DisplayName}
	s.writeCache(ctx, cacheKey, team)
	return &team, nil
}

// readCache 尝试从 Redis 读取并反序列化缓存值；任何失败都视为未命中。
func (s *microsoftService) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.rdb == nil {
		return false
	}
	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

// writeCache 把值序列化后写入 Redis，失败只记日志，不影响主流程。
func (s *microsoftService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		log.Warnf("failed to cache directory lookup %s: %v", key, err)
	}
}
