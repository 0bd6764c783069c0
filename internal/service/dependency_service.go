package service

import (
	"fmt"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/repository"
)

// DependencyService 定义了功能依赖边的业务逻辑接口。
type DependencyService interface {
	GetDependencies(functionID uint) ([]uint, error)
	GetDependents(functionID uint) ([]uint, error)
	CreateDependency(dep model.FunctionDependency) (*model.FunctionDependency, error)
	DeleteDependency(dep model.FunctionDependency) error
}

type dependencyService struct {
	repo         repository.DependencyRepository
	functionRepo repository.FunctionRepository
}

// NewDependencyService 创建一个新的 DependencyService。
func NewDependencyService(repo repository.DependencyRepository, functionRepo repository.FunctionRepository) DependencyService {
	return &dependencyService{repo: repo, functionRepo: functionRepo}
}

// GetDependencies 返回 functionID 依赖的功能 ID 列表。
func (s *dependencyService) GetDependencies(functionID uint) ([]uint, error) {
	return s.repo.FindDependencies(functionID)
}

// GetDependents 返回依赖于 functionID 的功能 ID 列表。
func (s *dependencyService) GetDependents(functionID uint) ([]uint, error) {
	return s.repo.FindDependents(functionID)
}

// CreateDependency 创建一条依赖边，两端节点都必须存在。
func (s *dependencyService) CreateDependency(dep model.FunctionDependency) (*model.FunctionDependency, error) {
	if dep.FunctionID == dep.DependencyFunctionID {
		return nil, fmt.Errorf("%w: a function cannot depend on itself", ErrValidation)
	}
	for _, id := range []uint{dep.FunctionID, dep.DependencyFunctionID} {
		f, err := s.functionRepo.FindByID(id)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("%w: function %d does not exist", ErrValidation, id)
		}
	}

	if err := s.repo.Create(&dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

// DeleteDependency 删除一条依赖边。
func (s *dependencyService) DeleteDependency(dep model.FunctionDependency) error {
	return s.repo.Delete(dep)
}
