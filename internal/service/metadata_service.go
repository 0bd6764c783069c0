package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/repository"
	"github.com/kartverket/frisk-backend/pkg/log"
)

// MetadataService 定义了功能元数据业务逻辑的接口。
// 键统一规范化为小写；"team" 是唯一带特殊校验的键，写入前其值必须
// 能在外部目录中解析为同 ID 的组。
type MetadataService interface {
	GetMetadataByID(id uint) (*model.FunctionMetadataEntry, error)
	// GetMetadata 按条件检索，functionID 和 key 不允许同时为空。
	GetMetadata(functionID *uint, key, value *string) ([]model.FunctionMetadataEntry, error)
	GetKeys(search string) ([]string, error)
	AddMetadata(ctx context.Context, functionID uint, req model.CreateMetadataRequest) error
	UpdateMetadataValue(id uint, value string) error
	DeleteMetadata(id uint) error
	// GetIndicators 返回与 functionID 互为祖先或后代（含自身）、
	// 且带有匹配元数据的功能节点。
	GetIndicators(key string, value *string, functionID uint) ([]model.Function, error)
}

type metadataService struct {
	repo         repository.MetadataRepository
	functionRepo repository.FunctionRepository
	microsoft    MicrosoftService
}

// NewMetadataService 创建一个新的 MetadataService。
func NewMetadataService(
	repo repository.MetadataRepository,
	functionRepo repository.FunctionRepository,
	microsoft MicrosoftService,
) MetadataService {
	return &metadataService{repo: repo, functionRepo: functionRepo, microsoft: microsoft}
}

// GetMetadataByID 获取单条元数据，不存在时返回 ErrNotFound。
func (s *metadataService) GetMetadataByID(id uint) (*model.FunctionMetadataEntry, error) {
	entry, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// GetMetadata 按条件检索元数据，条件之间为 AND 关系。
func (s *metadataService) GetMetadata(functionID *uint, key, value *string) ([]model.FunctionMetadataEntry, error) {
	if functionID == nil && key == nil {
		return nil, fmt.Errorf("%w: functionId and key cannot both be empty", ErrValidation)
	}
	return s.repo.Find(functionID, key, value)
}

// GetKeys 返回已注册的键词表。
func (s *metadataService) GetKeys(search string) ([]string, error) {
	return s.repo.FindKeys(search)
}

// AddMetadata 为功能添加一条元数据。
// key 为 "team" 时同步校验值是否为有效的目录组 ID；目录不可达或超时
// 一律拒绝写入（fail closed）。键注册与条目插入在同一事务中完成。
func (s *metadataService) AddMetadata(ctx context.Context, functionID uint, req model.CreateMetadataRequest) error {
	key := strings.ToLower(strings.TrimSpace(req.Key))
	if key == "" {
		return fmt.Errorf("%w: metadata key is required", ErrValidation)
	}

	if err := s.validateValueForKey(ctx, key, req.Value); err != nil {
		return err
	}

	return s.repo.WithTx(func(tx repository.MetadataRepository) error {
		keyID, err := tx.EnsureKey(key)
		if err != nil {
			return err
		}
		return tx.Create(&model.FunctionMetadata{
			FunctionID: functionID,
			KeyID:      keyID,
			Value:      req.Value,
		})
	})
}

// validateValueForKey 对带特殊语义的键做值校验。
func (s *metadataService) validateValueForKey(ctx context.Context, key, value string) error {
	if key != model.TeamMetadataKey {
		return nil
	}

	team, err := s.microsoft.GetGroup(ctx, value)
	if err != nil {
		log.Warnf("team validation failed for value %q: %v", value, err)
		return fmt.Errorf("%w: the value %q is not valid for key %q", ErrValidation, value, key)
	}
	if team.ID != value {
		return fmt.Errorf("%w: the value %q is not valid for key %q", ErrValidation, value, key)
	}
	return nil
}

// UpdateMetadataValue 只更新元数据的值。
// 与原有行为保持一致：即使键是 "team" 也不做目录再校验。
func (s *metadataService) UpdateMetadataValue(id uint, value string) error {
	updated, err := s.repo.UpdateValue(id, value)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

// DeleteMetadata 删除一条元数据。
func (s *metadataService) DeleteMetadata(id uint) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// GetIndicators 沿祖先或后代方向查找带有指定元数据的功能节点。
// 这是"最近的团队归属"解析所依赖的遍历机制。
func (s *metadataService) GetIndicators(key string, value *string, functionID uint) ([]model.Function, error) {
	f, err := s.functionRepo.FindByID(functionID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return s.repo.FindIndicators(key, value, f.Path)
}
