package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/service"
)

// CompanyViewResponse 企业视图
// @Description 企业通过访问令牌看到的实习与表单
type CompanyViewResponse struct {
	Practice       *model.PracticeModel    `json:"practice"`
	Grant          *model.AccessGrantModel `json:"grant"`
	Postulation    []form.ProjectedField   `json:"postulacion"`
	EvaluationKind string                  `json:"evaluacion_tipo"`
	Evaluation     []form.ProjectedField   `json:"evaluacion"`
}

// CompanyController 企业令牌接口,不使用会话
type CompanyController struct {
	practiceService service.PracticeService
}

// NewCompanyController 创建企业控制器
func NewCompanyController(practiceService service.PracticeService) *CompanyController {
	return &CompanyController{practiceService: practiceService}
}

// View 企业查看实习
// @Summary      企业查看实习
// @Tags         企业
// @Produce      json
// @Param        token query string true "企业访问令牌"
// @Success      200  {object}  Response{data=CompanyViewResponse}
// @Failure      403  {object}  ErrorResponse
// @Router       /empresa/practica [get]
func (cc *CompanyController) View(c *gin.Context) {
	view, err := cc.practiceService.CompanyView(c.Request.Context(), c.Query("token"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, CompanyViewResponse{
		Practice:       view.Practice,
		Grant:          view.Grant,
		Postulation:    view.Postulation,
		EvaluationKind: view.EvaluationKind,
		Evaluation:     view.Evaluation,
	})
}

// ConfirmStart 企业确认实习开始
// @Summary      确认实习开始
// @Tags         企业
// @Accept       json
// @Produce      json
// @Param        request body service.ConfirmStartRequest true "确认信息"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /empresa/confirmar-inicio-practica [post]
func (cc *CompanyController) ConfirmStart(c *gin.Context) {
	var req service.ConfirmStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	res, err := cc.practiceService.ConfirmStart(c.Request.Context(), &req)
	respondTransition(c, res, err)
}

// SubmitEvaluation 企业提交评估
// @Summary      提交实习评估
// @Tags         企业
// @Accept       json
// @Produce      json
// @Param        request body service.SubmitEvaluationRequest true "评估答案"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /empresa/enviar-evaluacion [post]
func (cc *CompanyController) SubmitEvaluation(c *gin.Context) {
	var req service.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	res, err := cc.practiceService.SubmitEvaluation(c.Request.Context(), &req)
	respondTransition(c, res, err)
}
