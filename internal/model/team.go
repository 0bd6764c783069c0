package model

// Team 是外部目录中的一个组，既作为元数据值也作为访问控制单元。
type Team struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
