package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartverket/frisk-backend/internal/middleware"
	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubFunctions 用固定结果替代 FunctionService。
type stubFunctions struct {
	function *model.Function
	err      error
}

func (s *stubFunctions) GetFunctions(search string) ([]model.Function, error) {
	if s.function == nil {
		return nil, s.err
	}
	return []model.Function{*s.function}, s.err
}

func (s *stubFunctions) GetFunction(id uint) (*model.Function, error) {
	if s.function == nil && s.err == nil {
		return nil, service.ErrNotFound
	}
	return s.function, s.err
}

func (s *stubFunctions) GetChildren(id uint) ([]model.Function, error) {
	return nil, s.err
}

func (s *stubFunctions) CreateFunction(req model.CreateFunctionRequest) (*model.Function, error) {
	return s.function, s.err
}

func (s *stubFunctions) UpdateFunction(id uint, req model.UpdateFunctionRequest) (*model.Function, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.function, nil
}

func (s *stubFunctions) DeleteFunction(id uint) (bool, error) {
	return s.function != nil, s.err
}

func (s *stubFunctions) CleanupHistory(olderThanDays int) (int64, error) {
	return 0, nil
}

// stubMetadata 只实现 handler 测试用到的调用。
type stubMetadata struct {
	service.MetadataService
	added []model.CreateMetadataRequest
}

func (s *stubMetadata) AddMetadata(ctx context.Context, functionID uint, req model.CreateMetadataRequest) error {
	s.added = append(s.added, req)
	return nil
}

// stubAuth 按固定布尔值回答授权询问。
type stubAuth struct {
	functionAccess bool
	superUser      bool
}

func (s *stubAuth) HasFunctionAccess(ctx context.Context, userID string, functionID uint) bool {
	return s.functionAccess
}

func (s *stubAuth) HasMetadataAccess(ctx context.Context, userID string, metadataID uint) bool {
	return s.functionAccess
}

func (s *stubAuth) HasSuperUserAccess(ctx context.Context, userID string) bool {
	return s.superUser
}

func setupFunctionRouter(functions service.FunctionService, metadata service.MetadataService, auth service.AuthService) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "test-user")
	})

	h := NewFunctionHandler(functions, metadata, auth)
	r.GET("/functions", h.List)
	r.POST("/functions", h.Create)
	r.GET("/functions/:id", h.Get)
	r.PUT("/functions/:id", h.Update)
	r.DELETE("/functions/:id", h.Delete)
	r.GET("/functions/:id/access", h.Access)
	return r
}

func performRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetFunctionInvalidID(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{}, &stubMetadata{}, &stubAuth{})

	w := performRequest(r, http.MethodGet, "/functions/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodGet, "/functions/0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetFunctionNotFoundMapsTo404(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{}, &stubMetadata{}, &stubAuth{})

	w := performRequest(r, http.MethodGet, "/functions/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateFunctionRejectsBlankName(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{}, &stubMetadata{}, &stubAuth{})

	w := performRequest(r, http.MethodPost, "/functions", `{"function":{"name":"  ","parentId":1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodPost, "/functions", `{"function":{"name":"x","parentId":0}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateFunctionWithMetadata(t *testing.T) {
	created := &model.Function{ID: 2, Name: "Eiendom", Path: "1.2"}
	metadata := &stubMetadata{}
	r := setupFunctionRouter(&stubFunctions{function: created}, metadata, &stubAuth{})

	w := performRequest(r, http.MethodPost, "/functions",
		`{"function":{"name":"Eiendom","parentId":1},"metadata":[{"key":"team","value":"group-1"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, metadata.added, 1)
	assert.Equal(t, "team", metadata.added[0].Key)
}

func TestUpdateFunctionRequiresAccess(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{function: &model.Function{ID: 2}}, &stubMetadata{},
		&stubAuth{functionAccess: false, superUser: false})

	w := performRequest(r, http.MethodPut, "/functions/2", `{"name":"x","orderIndex":0}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateFunctionSuperUserBypass(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{function: &model.Function{ID: 2, Name: "x"}}, &stubMetadata{},
		&stubAuth{functionAccess: false, superUser: true})

	w := performRequest(r, http.MethodPut, "/functions/2", `{"name":"x","orderIndex":0}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateFunctionValidationMapsTo400(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{err: service.ErrValidation}, &stubMetadata{},
		&stubAuth{functionAccess: true})

	w := performRequest(r, http.MethodPut, "/functions/2", `{"name":"x","orderIndex":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFunctionRequiresAccess(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{function: &model.Function{ID: 2}}, &stubMetadata{}, &stubAuth{})

	w := performRequest(r, http.MethodDelete, "/functions/2", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = setupFunctionRouter(&stubFunctions{function: &model.Function{ID: 2}}, &stubMetadata{},
		&stubAuth{functionAccess: true})
	w = performRequest(r, http.MethodDelete, "/functions/2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAccessReturnsBool(t *testing.T) {
	r := setupFunctionRouter(&stubFunctions{}, &stubMetadata{}, &stubAuth{functionAccess: true})

	w := performRequest(r, http.MethodGet, "/functions/2/access", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Body.String())
}
