package model

// FunctionDependency 对应于 'function_dependencies' 表，
// 表示一条 "functionId 依赖 dependencyFunctionId" 的有向边。
type FunctionDependency struct {
	FunctionID           uint `gorm:"primaryKey;autoIncrement:false" json:"functionId"`
	DependencyFunctionID uint `gorm:"primaryKey;autoIncrement:false" json:"dependencyFunctionId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FunctionDependency) TableName() string {
	return "function_dependencies"
}
