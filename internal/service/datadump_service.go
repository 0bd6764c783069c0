package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kartverket/frisk-backend/internal/repository"
)

// DumpRow 是数据导出中的一行：功能节点加上聚合后的元数据。
type DumpRow struct {
	ID       uint              `json:"id"`
	Name     string            `json:"name"`
	ParentID *uint             `json:"parentId"`
	Path     string            `json:"path"`
	Metadata map[string]string `json:"metadata"`
}

// DataDumpService 定义了全量数据导出的接口。
type DataDumpService interface {
	GetDataDump() ([]DumpRow, error)
	// ToCSV 将导出行渲染为 CSV：表头为 id、name、path 加所有出现过的
	// 元数据键；每个字段都加引号，内嵌引号双写转义。
	ToCSV(rows []DumpRow) string
}

type dataDumpService struct {
	functionRepo repository.FunctionRepository
	metadataRepo repository.MetadataRepository
}

// NewDataDumpService 创建一个新的 DataDumpService。
func NewDataDumpService(functionRepo repository.FunctionRepository, metadataRepo repository.MetadataRepository) DataDumpService {
	return &dataDumpService{functionRepo: functionRepo, metadataRepo: metadataRepo}
}

// GetDataDump 返回所有带元数据的功能节点及其聚合的键值对，按 ID 升序。
// 同一键出现多个值时后写的覆盖先写的，与数据库端聚合的行为一致。
func (s *dataDumpService) GetDataDump() ([]DumpRow, error) {
	functions, err := s.functionRepo.FindAll("")
	if err != nil {
		return nil, err
	}
	entries, err := s.metadataRepo.FindAllEntries()
	if err != nil {
		return nil, err
	}

	metadataByFunction := make(map[uint]map[string]string)
	for _, entry := range entries {
		if metadataByFunction[entry.FunctionID] == nil {
			metadataByFunction[entry.FunctionID] = make(map[string]string)
		}
		metadataByFunction[entry.FunctionID][entry.Key] = entry.Value
	}

	var rows []DumpRow
	for _, f := range functions {
		metadata, ok := metadataByFunction[f.ID]
		if !ok {
			// 与原始导出一致：没有任何元数据的节点不出现在导出中
			continue
		}
		rows = append(rows, DumpRow{
			ID:       f.ID,
			Name:     f.Name,
			ParentID: f.ParentID,
			Path:     f.Path,
			Metadata: metadata,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// ToCSV 渲染 CSV 文本。固定列在前，元数据键列按字典序排在后面。
func (s *dataDumpService) ToCSV(rows []DumpRow) string {
	keySet := make(map[string]struct{})
	for _, row := range rows {
		for key := range row.Metadata {
			keySet[key] = struct{}{}
		}
	}
	metadataKeys := make([]string, 0, len(keySet))
	for key := range keySet {
		metadataKeys = append(metadataKeys, key)
	}
	sort.Strings(metadataKeys)

	headers := append([]string{"id", "name", "path"}, metadataKeys...)

	var b strings.Builder
	writeCSVLine(&b, headers)
	for _, row := range rows {
		fields := []string{strconv.FormatUint(uint64(row.ID), 10), row.Name, row.Path}
		for _, key := range metadataKeys {
			fields = append(fields, row.Metadata[key])
		}
		writeCSVLine(&b, fields)
	}
	return b.String()
}

// writeCSVLine 写入一行，每个字段都加引号并把内嵌引号双写。
func writeCSVLine(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
