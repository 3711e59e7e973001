package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/service"
	"github.com/mautops/practica-gin/internal/utils"
)

// TemplateController 表单模板控制器
type TemplateController struct {
	templateService service.TemplateService
}

// NewTemplateController 创建模板控制器
func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
	}
}

// Create 创建模板
// @Summary      创建表单模板
// @Description  kind 只能包含小写字母、数字和下划线,且全局唯一
// @Tags         表单模板
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTemplateRequest true "模板信息"
// @Success      200  {object}  Response{data=model.FormTemplateModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /formularios [post]
// @Security     BearerAuth
func (c *TemplateController) Create(ctx *gin.Context) {
	var req service.CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		BadRequest(ctx, err)
		return
	}

	template, err := c.templateService.Create(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, template)
}

// GetByKind 获取模板
// @Summary      按类型获取表单模板
// @Tags         表单模板
// @Produce      json
// @Param        kind path string true "模板类型" example(postulacion)
// @Success      200  {object}  Response{data=model.FormTemplateModel}
// @Failure      404  {object}  ErrorResponse
// @Router       /formularios/{kind} [get]
// @Security     BearerAuth
func (c *TemplateController) GetByKind(ctx *gin.Context) {
	template, err := c.templateService.GetByKind(ctx.Request.Context(), ctx.Param("kind"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, template)
}

// Update 更新模板
// @Summary      更新表单模板
// @Description  只更新提供的字段,已删除字段在答案文档中的值保留
// @Tags         表单模板
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.UpdateTemplateRequest true "模板信息"
// @Success      200  {object}  Response{data=model.FormTemplateModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /formularios/{id} [put]
// @Security     BearerAuth
func (c *TemplateController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template id", err.Error())
		return
	}

	var req service.UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		BadRequest(ctx, err)
		return
	}

	template, err := c.templateService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, template)
}

// Delete 删除模板
// @Summary      删除表单模板
// @Description  内置模板和仍被答案文档引用的模板不可删除
// @Tags         表单模板
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /formularios/{id} [delete]
// @Security     BearerAuth
func (c *TemplateController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template id", err.Error())
		return
	}

	if err := c.templateService.Delete(ctx.Request.Context(), id); err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// List 列出模板
// @Summary      获取模板列表
// @Description  分页获取模板列表,支持搜索和排序
// @Tags         表单模板
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        search query string false "搜索关键词"
// @Param        sort_by query string false "排序字段" default(kind)
// @Param        order query string false "排序方向" Enums(asc, desc) default(asc)
// @Success      200  {object}  PaginatedResponse{data=[]model.FormTemplateModel}
// @Failure      400  {object}  ErrorResponse
// @Router       /formularios [get]
// @Security     BearerAuth
func (c *TemplateController) List(ctx *gin.Context) {
	var filter service.TemplateListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	response, err := c.templateService.List(ctx.Request.Context(), &filter)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Paginated(ctx, response.Data, PaginationInfo{
		Page:      response.Pagination.Page,
		PageSize:  response.Pagination.PageSize,
		Total:     response.Pagination.Total,
		TotalPage: response.Pagination.TotalPage,
	})
}
