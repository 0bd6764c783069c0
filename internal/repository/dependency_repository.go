package repository

import (
	"gorm.io/gorm"

	"github.com/kartverket/frisk-backend/internal/model"
)

// DependencyRepository 接口定义了功能依赖边的数据操作方法。
type DependencyRepository interface {
	FindDependencies(functionID uint) ([]uint, error)
	FindDependents(functionID uint) ([]uint, error)
	Create(dep *model.FunctionDependency) error
	Delete(dep model.FunctionDependency) error
}

type dependencyRepository struct {
	db *gorm.DB
}

// NewDependencyRepository 创建一个新的 DependencyRepository 实例。
func NewDependencyRepository(db *gorm.DB) DependencyRepository {
	return &dependencyRepository{db: db}
}

// FindDependencies 返回 functionID 依赖的功能 ID 列表。
func (r *dependencyRepository) FindDependencies(functionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.FunctionDependency{}).
		Where("function_id = ?", functionID).
		Pluck("dependency_function_id", &ids).Error
	return ids, err
}

// FindDependents 返回依赖于 functionID 的功能 ID 列表。
func (r *dependencyRepository) FindDependents(functionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.FunctionDependency{}).
		Where("dependency_function_id = ?", functionID).
		Pluck("function_id", &ids).Error
	return ids, err
}

// Create 插入一条依赖边。
func (r *dependencyRepository) Create(dep *model.FunctionDependency) error {
	return r.db.Create(dep).Error
}

// Delete 删除一条依赖边。
func (r *dependencyRepository) Delete(dep model.FunctionDependency) error {
	return r.db.
		Where("function_id = ? AND dependency_function_id = ?", dep.FunctionID, dep.DependencyFunctionID).
		Delete(&model.FunctionDependency{}).Error
}
