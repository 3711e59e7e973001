package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/service"
)

// CoordinatorController 协调员操作
type CoordinatorController struct {
	practiceService service.PracticeService
}

// NewCoordinatorController 创建协调员控制器
func NewCoordinatorController(practiceService service.PracticeService) *CoordinatorController {
	return &CoordinatorController{practiceService: practiceService}
}

// Evaluate 审核申请
// @Summary      审核申请
// @Description  aprobar 开始实习;rechazar 需要 observaciones 和 destinatario(alumno/empresa/ambos)
// @Tags         协调员
// @Accept       json
// @Produce      json
// @Param        id path string true "实习 ID"
// @Param        request body service.EvaluateRequest true "审核决定"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /coordinador/evaluar/{id} [put]
// @Security     BearerAuth
func (cc *CoordinatorController) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	res, err := cc.practiceService.Evaluate(c.Request.Context(), actorOf(c), c.Param("id"), &req)
	respondTransition(c, res, err)
}

// SendToCompany 转交企业
// @Summary      转交企业
// @Tags         协调员
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      409  {object}  ErrorResponse
// @Router       /coordinador/practicas/{id}/enviar-empresa [post]
// @Security     BearerAuth
func (cc *CoordinatorController) SendToCompany(c *gin.Context) {
	res, err := cc.practiceService.SendToCompany(c.Request.Context(), actorOf(c), c.Param("id"))
	respondTransition(c, res, err)
}

// Finish 结束实习
// @Summary      结束实习
// @Tags         协调员
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      409  {object}  ErrorResponse
// @Router       /coordinador/practicas/{id}/finalizar [post]
// @Security     BearerAuth
func (cc *CoordinatorController) Finish(c *gin.Context) {
	res, err := cc.practiceService.Finish(c.Request.Context(), actorOf(c), c.Param("id"))
	respondTransition(c, res, err)
}

// UpdateState 手动推进状态
// @Summary      手动更新状态
// @Description  只能前进到 enviada_a_empresa、pendiente_validacion 或 finalizada
// @Tags         协调员
// @Accept       json
// @Produce      json
// @Param        id path string true "实习 ID"
// @Param        request body service.UpdateStateRequest true "目标状态"
// @Success      200  {object}  Response{data=TransitionResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /coordinador/practicas/{id}/estado [put]
// @Security     BearerAuth
func (cc *CoordinatorController) UpdateState(c *gin.Context) {
	var req service.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	res, err := cc.practiceService.UpdateState(c.Request.Context(), actorOf(c), c.Param("id"), &req)
	respondTransition(c, res, err)
}

// ExtendAccess 延长企业令牌
// @Summary      延长企业访问令牌
// @Tags         协调员
// @Accept       json
// @Produce      json
// @Param        id path string true "实习 ID"
// @Param        request body service.ExtendAccessRequest true "有效小时数"
// @Success      200  {object}  Response{data=model.AccessGrantModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /coordinador/practicas/{id}/acceso [put]
// @Security     BearerAuth
func (cc *CoordinatorController) ExtendAccess(c *gin.Context) {
	var req service.ExtendAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	grant, err := cc.practiceService.ExtendAccess(c.Request.Context(), actorOf(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, grant)
}

// AccessGrantResponse 重新签发后的授权,附带新令牌
// 邮件发送失败时协调员可据此转交链接
type AccessGrantResponse struct {
	*model.AccessGrantModel
	AccessToken string `json:"access_token"`
}

// ReissueAccess 重新签发企业令牌
// @Summary      重新签发企业访问令牌
// @Description  旧令牌立即失效,新链接发送给企业
// @Tags         协调员
// @Produce      json
// @Param        id path string true "实习 ID"
// @Success      200  {object}  Response{data=AccessGrantResponse}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /coordinador/practicas/{id}/acceso [post]
// @Security     BearerAuth
func (cc *CoordinatorController) ReissueAccess(c *gin.Context) {
	grant, err := cc.practiceService.ReissueAccess(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, AccessGrantResponse{AccessGrantModel: grant, AccessToken: grant.Token})
}
