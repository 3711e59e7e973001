package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/service"
)

// QueryController 查询统计控制器
type QueryController struct {
	queryService      service.QueryService
	statisticsService service.StatisticsService
}

// NewQueryController 创建查询控制器
func NewQueryController(queryService service.QueryService, statisticsService service.StatisticsService) *QueryController {
	return &QueryController{
		queryService:      queryService,
		statisticsService: statisticsService,
	}
}

// queryInt 解析整数查询参数,缺省返回 0
func queryInt(ctx *gin.Context, name string) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(name+" must be an integer", name)
	}
	return v, nil
}

// ListPractices 列出实习
// @Summary      获取实习列表
// @Description  分页获取实习列表,支持按状态、学生、级别过滤和排序
// @Tags         查询统计
// @Produce      json
// @Param        state query string false "实习状态"
// @Param        student_id query string false "学生 ID"
// @Param        level query int false "实习级别"
// @Param        search query string false "按学生或企业名称搜索"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        sort_by query string false "排序字段" default(created_at)
// @Param        order query string false "排序方向" Enums(asc, desc) default(desc)
// @Success      200  {object}  PaginatedResponse{data=[]model.PracticeModel}
// @Failure      400  {object}  ErrorResponse
// @Router       /practicas [get]
// @Security     BearerAuth
func (c *QueryController) ListPractices(ctx *gin.Context) {
	filter := service.ListPracticesFilter{
		Search: ctx.Query("search"),
		SortBy: ctx.Query("sort_by"),
		Order:  ctx.Query("order"),
	}
	if state := ctx.Query("state"); state != "" {
		filter.State = &state
	}
	if studentID := ctx.Query("student_id"); studentID != "" {
		filter.StudentID = &studentID
	}

	var err error
	if filter.Page, err = queryInt(ctx, "page"); err != nil {
		HandleError(ctx, err)
		return
	}
	if filter.PageSize, err = queryInt(ctx, "page_size"); err != nil {
		HandleError(ctx, err)
		return
	}
	level, err := queryInt(ctx, "level")
	if err != nil {
		HandleError(ctx, err)
		return
	}
	if level != 0 {
		filter.Level = &level
	}

	practices, total, err := c.queryService.ListPractices(ctx.Request.Context(), &filter)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	Paginated(ctx, practices, NewPaginationInfo(filter.Page, pageSize, total))
}

// Statistics 实习统计
// @Summary      实习统计
// @Description  总数、进行中数量、按状态和级别的分布、待评估数量和通知发送情况
// @Tags         查询统计
// @Produce      json
// @Success      200  {object}  Response{data=service.PracticeSummary}
// @Router       /practicas/estadisticas [get]
// @Security     BearerAuth
func (c *QueryController) Statistics(ctx *gin.Context) {
	summary, err := c.statisticsService.Summary(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, summary)
}

// Notifications 实习的通知发送记录
// @Summary      通知记录
// @Tags         查询统计
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=[]model.NotificationModel}
// @Router       /coordinador/practicas/{id}/notificaciones [get]
// @Security     BearerAuth
func (c *QueryController) Notifications(ctx *gin.Context) {
	records, err := c.queryService.GetNotifications(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, records)
}
