package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/auth"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/service"
)

// TransitionResponse 状态转换响应
// @Description 转换后的实习及受影响的答案文档
type TransitionResponse struct {
	Practice *model.PracticeModel       `json:"practice"`
	Document *model.AnswerDocumentModel `json:"document,omitempty"`
	Waiting  bool                       `json:"waiting"` // 另一方仍需修正
	// AccessToken 仅在申请响应中返回企业链接令牌
	AccessToken string `json:"access_token,omitempty"`
}

func newTransitionResponse(res *integration.TransitionResult) TransitionResponse {
	return TransitionResponse{Practice: res.Practice, Document: res.Document, Waiting: res.Waiting}
}

// respondTransition 写入转换结果,重放返回 already processed
func respondTransition(c *gin.Context, res *integration.TransitionResult, err error) {
	if err != nil {
		HandleError(c, err)
		return
	}
	Processed(c, res.AlreadyProcessed, newTransitionResponse(res))
}

// actorOf 当前会话操作者
// 缺失时返回零值,由状态机按无权限处理
func actorOf(c *gin.Context) integration.Actor {
	actor, _ := auth.ActorFromContext(c)
	return actor
}

// PracticeController 学生与共享的实习接口
type PracticeController struct {
	practiceService service.PracticeService
	queryService    service.QueryService
}

// NewPracticeController 创建实习控制器
func NewPracticeController(practiceService service.PracticeService, queryService service.QueryService) *PracticeController {
	return &PracticeController{
		practiceService: practiceService,
		queryService:    queryService,
	}
}

// Apply 提交实习申请
// @Summary      提交实习申请
// @Description  学生提交申请,同时为企业签发访问令牌
// @Tags         实习
// @Accept       json
// @Produce      json
// @Param        request body service.ApplyRequest true "申请信息"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /practicas/postular [post]
// @Security     BearerAuth
func (pc *PracticeController) Apply(c *gin.Context) {
	var req service.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	res, err := pc.practiceService.Apply(c.Request.Context(), actorOf(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	out := newTransitionResponse(res)
	if res.Grant != nil {
		out.AccessToken = res.Grant.Token
	}
	Processed(c, res.AlreadyProcessed, out)
}

// Mine 学生的实习列表
// @Summary      我的实习
// @Tags         实习
// @Produce      json
// @Success      200  {object}  Response{data=[]model.PracticeModel}
// @Router       /practicas/mias [get]
// @Security     BearerAuth
func (pc *PracticeController) Mine(c *gin.Context) {
	practices, err := pc.queryService.ListByStudent(c.Request.Context(), actorOf(c).ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, practices)
}

// Get 获取实习详情
// @Summary      获取实习详情
// @Tags         实习
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=model.PracticeModel}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /practicas/{id} [get]
// @Security     BearerAuth
func (pc *PracticeController) Get(c *gin.Context) {
	p, err := pc.practiceService.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, p)
}

// History 获取状态历史
// @Summary      实习状态历史
// @Tags         实习
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=[]service.StateHistory}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /practicas/{id}/historial [get]
// @Security     BearerAuth
func (pc *PracticeController) History(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := pc.practiceService.Get(ctx, actorOf(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	history, err := pc.queryService.GetHistory(ctx, p.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, history)
}

// Documents 获取答案文档
// @Summary      实习答案文档
// @Tags         实习
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=[]model.AnswerDocumentModel}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /practicas/{id}/documentos [get]
// @Security     BearerAuth
func (pc *PracticeController) Documents(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := pc.practiceService.Get(ctx, actorOf(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	docs, err := pc.queryService.GetDocuments(ctx, p.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, docs)
}

// Correct 学生修正申请
// @Summary      修正申请
// @Description  驳回后学生修正自己负责的字段
// @Tags         实习
// @Accept       json
// @Produce      json
// @Param        id path string true "实习 ID"
// @Param        request body service.AnswersRequest true "修正后的答案"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /practicas/{id}/corregir [post]
// @Security     BearerAuth
func (pc *PracticeController) Correct(c *gin.Context) {
	req, ok := bindAnswers(c)
	if !ok {
		return
	}
	res, err := pc.practiceService.Correct(c.Request.Context(), actorOf(c), c.Param("id"), req)
	respondTransition(c, res, err)
}

// Logbook 提交实习日志
// @Summary      提交日志
// @Tags         实习
// @Accept       json
// @Produce      json
// @Param        id path string true "实习 ID"
// @Param        request body service.AnswersRequest true "日志内容"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /practicas/{id}/bitacora [post]
// @Security     BearerAuth
func (pc *PracticeController) Logbook(c *gin.Context) {
	req, ok := bindAnswers(c)
	if !ok {
		return
	}
	res, err := pc.practiceService.SubmitLogbook(c.Request.Context(), actorOf(c), c.Param("id"), req)
	respondTransition(c, res, err)
}

// Close 结案
// @Summary      结案
// @Description  仅在评估完成后可结案
// @Tags         实习
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      409  {object}  ErrorResponse
// @Router       /practicas/{id}/cerrar [patch]
// @Security     BearerAuth
func (pc *PracticeController) Close(c *gin.Context) {
	res, err := pc.practiceService.Close(c.Request.Context(), actorOf(c), c.Param("id"))
	respondTransition(c, res, err)
}

// Delete 删除实习
// @Summary      删除实习
// @Description  同时删除答案文档、访问令牌和状态历史
// @Tags         实习
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /practicas/{id} [delete]
// @Security     BearerAuth
func (pc *PracticeController) Delete(c *gin.Context) {
	if err := pc.practiceService.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

func bindAnswers(c *gin.Context) (*service.AnswersRequest, bool) {
	var req service.AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return nil, false
	}
	return &req, true
}
