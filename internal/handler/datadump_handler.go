package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/service"
)

// DataDumpHandler 处理全量数据导出请求。
type DataDumpHandler struct {
	dump service.DataDumpService
}

// NewDataDumpHandler 创建一个新的 DataDumpHandler。
func NewDataDumpHandler(dump service.DataDumpService) *DataDumpHandler {
	return &DataDumpHandler{dump: dump}
}

// Dump 处理 GET /dump，以 CSV 附件返回功能树与聚合元数据。
func (h *DataDumpHandler) Dump(c *gin.Context) {
	rows, err := h.dump.GetDataDump()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="data.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(h.dump.ToCSV(rows)))
}
