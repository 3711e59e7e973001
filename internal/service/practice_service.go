package service

import (
	"context"
	"time"

	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/metrics"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/statemachine"
)

// PracticeService 实习服务接口
type PracticeService interface {
	Apply(ctx context.Context, actor integration.Actor, req *ApplyRequest) (*integration.TransitionResult, error)
	Get(ctx context.Context, actor integration.Actor, id string) (*model.PracticeModel, error)
	Correct(ctx context.Context, actor integration.Actor, id string, req *AnswersRequest) (*integration.TransitionResult, error)
	SubmitLogbook(ctx context.Context, actor integration.Actor, id string, req *AnswersRequest) (*integration.TransitionResult, error)
	SendToCompany(ctx context.Context, actor integration.Actor, id string) (*integration.TransitionResult, error)
	Evaluate(ctx context.Context, actor integration.Actor, id string, req *EvaluateRequest) (*integration.TransitionResult, error)
	Finish(ctx context.Context, actor integration.Actor, id string) (*integration.TransitionResult, error)
	Close(ctx context.Context, actor integration.Actor, id string) (*integration.TransitionResult, error)
	UpdateState(ctx context.Context, actor integration.Actor, id string, req *UpdateStateRequest) (*integration.TransitionResult, error)
	Delete(ctx context.Context, actor integration.Actor, id string) error
	ExtendAccess(ctx context.Context, actor integration.Actor, id string, req *ExtendAccessRequest) (*model.AccessGrantModel, error)
	ReissueAccess(ctx context.Context, actor integration.Actor, id string) (*model.AccessGrantModel, error)
	// 企业令牌操作
	CompanyView(ctx context.Context, token string) (*integration.CompanyView, error)
	ConfirmStart(ctx context.Context, req *ConfirmStartRequest) (*integration.TransitionResult, error)
	SubmitEvaluation(ctx context.Context, req *SubmitEvaluationRequest) (*integration.TransitionResult, error)
}

// ApplyRequest 实习申请请求
// @Description 学生提交实习申请的请求参数
type ApplyRequest struct {
	EmpresaNombre string       `json:"empresa_nombre" example:"Acme SpA" binding:"required"`        // 企业名称
	EmpresaCorreo string       `json:"empresa_correo" example:"rrhh@acme.cl" binding:"required,email"` // 企业联系邮箱
	EmpresaRef    string       `json:"empresa_ref" example:"76.123.456-7"`                          // 企业外部编号
	Nivel         int          `json:"nivel" example:"1" binding:"omitempty,oneof=1 2"`             // 实习级别
	FechaInicio   *time.Time   `json:"fecha_inicio" example:"2026-03-02T00:00:00Z"`                 // 预计开始日期
	FechaTermino  *time.Time   `json:"fecha_termino" example:"2026-06-30T00:00:00Z"`                // 预计结束日期
	Respuestas    form.Answers `json:"respuestas" swaggertype:"object"`                              // 学生填写的申请表
}

// AnswersRequest 表单答案请求
// @Description 修正申请或提交日志的请求参数
type AnswersRequest struct {
	Respuestas form.Answers `json:"respuestas" swaggertype:"object" binding:"required"` // 表单答案
}

// EvaluateRequest 协调员审核请求
// @Description 协调员审核申请的请求参数
type EvaluateRequest struct {
	Decision      string `json:"decision" example:"rechazar" binding:"required,oneof=aprobar rechazar"` // aprobar 或 rechazar
	Observaciones string `json:"observaciones" example:"Falta la firma del supervisor"`                 // 驳回时必填
	Destinatario  string `json:"destinatario" example:"empresa"`                                        // alumno/empresa/ambos
}

// UpdateStateRequest 手动更新状态请求
// @Description 协调员手动推进状态的请求参数
type UpdateStateRequest struct {
	Estado string `json:"estado" example:"finalizada" binding:"required"` // 目标状态
	Motivo string `json:"motivo" example:"Documentos recibidos por correo"` // 原因
}

// ExtendAccessRequest 延长令牌请求
// @Description 延长企业访问令牌有效期的请求参数
type ExtendAccessRequest struct {
	TTLHours int `json:"ttl_hours" example:"168" binding:"required,min=1"` // 从现在起的有效小时数
}

// ConfirmStartRequest 企业确认实习请求
// @Description 企业确认实习开始的请求参数
type ConfirmStartRequest struct {
	Token        string       `json:"token" binding:"required"`      // 企业访问令牌
	Confirmacion bool         `json:"confirmacion" example:"true"`   // 必须为 true
	Respuestas   form.Answers `json:"respuestas" swaggertype:"object"` // 企业填写的字段
}

// SubmitEvaluationRequest 企业评估请求
// @Description 企业提交实习评估的请求参数
type SubmitEvaluationRequest struct {
	Token      string       `json:"token" binding:"required"`                        // 企业访问令牌
	Respuestas form.Answers `json:"respuestas" swaggertype:"object" binding:"required"` // 评估表单答案
}

// practiceService 实习服务实现
type practiceService struct {
	manager     *integration.PracticeManager
	auditLogSvc AuditLogService
}

// NewPracticeService 创建实习服务
func NewPracticeService(manager *integration.PracticeManager, auditLogSvc AuditLogService) PracticeService {
	return &practiceService{
		manager:     manager,
		auditLogSvc: auditLogSvc,
	}
}

// audit 记录成功且非重放的转换
func (s *practiceService) audit(ctx context.Context, userID string, action statemachine.Action, res *integration.TransitionResult, details map[string]interface{}) {
	if s.auditLogSvc == nil || res == nil || res.AlreadyProcessed || userID == "" {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["state"] = res.Practice.State
	details["waiting"] = res.Waiting
	_ = s.auditLogSvc.RecordAction(ctx, userID, string(action), "practice", res.Practice.ID, details)
}

func companyUser(res *integration.TransitionResult) string {
	if res == nil || res.Grant == nil {
		return string(statemachine.RoleCompany)
	}
	return "empresa:" + res.Grant.CompanyEmail
}

// Apply 提交实习申请
func (s *practiceService) Apply(ctx context.Context, actor integration.Actor, req *ApplyRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.Apply(ctx, integration.ApplyCommand{
		Actor:        actor,
		CompanyName:  req.EmpresaNombre,
		CompanyEmail: req.EmpresaCorreo,
		CompanyRef:   req.EmpresaRef,
		Level:        req.Nivel,
		StartDate:    req.FechaInicio,
		EndDate:      req.FechaTermino,
		Answers:      req.Respuestas,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordPracticeCreated(res.Practice.Level)
	s.audit(ctx, actor.ID, statemachine.ActionApply, res, map[string]interface{}{"empresa": req.EmpresaNombre, "nivel": res.Practice.Level})
	return res, nil
}

// Get 获取实习,学生只能查看自己的实习
func (s *practiceService) Get(ctx context.Context, actor integration.Actor, id string) (*model.PracticeModel, error) {
	p, err := s.manager.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanView(actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CanView 判断操作者是否可以查看实习
func CanView(actor integration.Actor, p *model.PracticeModel) error {
	switch actor.Role {
	case statemachine.RoleCoordinator:
		return nil
	case statemachine.RoleStudent:
		if p.StudentID == actor.ID {
			return nil
		}
	}
	return apperror.Permission("practice belongs to another student")
}

// Correct 学生修正申请
func (s *practiceService) Correct(ctx context.Context, actor integration.Actor, id string, req *AnswersRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.Correct(ctx, id, actor, req.Respuestas)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.ActionCorrect, res, nil)
	return res, nil
}

// SubmitLogbook 学生提交日志
func (s *practiceService) SubmitLogbook(ctx context.Context, actor integration.Actor, id string, req *AnswersRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.SubmitLogbook(ctx, id, actor, req.Respuestas)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.ActionLogbook, res, nil)
	return res, nil
}

// SendToCompany 转交企业
func (s *practiceService) SendToCompany(ctx context.Context, actor integration.Actor, id string) (*integration.TransitionResult, error) {
	res, err := s.manager.SendToCompany(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.ActionSendToCompany, res, nil)
	return res, nil
}

// Evaluate 审核申请
func (s *practiceService) Evaluate(ctx context.Context, actor integration.Actor, id string, req *EvaluateRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.Evaluate(ctx, id, actor, integration.EvaluateDecision{
		Decision:      req.Decision,
		Observaciones: req.Observaciones,
		Destinatario:  req.Destinatario,
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.Action(req.Decision), res, map[string]interface{}{
		"observaciones": req.Observaciones,
		"destinatario":  req.Destinatario,
	})
	return res, nil
}

// Finish 结束实习
func (s *practiceService) Finish(ctx context.Context, actor integration.Actor, id string) (*integration.TransitionResult, error) {
	res, err := s.manager.Finish(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.ActionFinish, res, nil)
	return res, nil
}

// Close 关闭实习
func (s *practiceService) Close(ctx context.Context, actor integration.Actor, id string) (*integration.TransitionResult, error) {
	res, err := s.manager.Close(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.ActionClose, res, nil)
	return res, nil
}

// UpdateState 手动更新状态
func (s *practiceService) UpdateState(ctx context.Context, actor integration.Actor, id string, req *UpdateStateRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.UpdateState(ctx, id, actor, req.Estado, req.Motivo)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor.ID, statemachine.ActionManualUpdate, res, map[string]interface{}{"motivo": req.Motivo})
	return res, nil
}

// Delete 删除实习
func (s *practiceService) Delete(ctx context.Context, actor integration.Actor, id string) error {
	if err := s.manager.Delete(ctx, id, actor); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "practice", id, map[string]interface{}{"practice_id": id})
	}
	return nil
}

// ExtendAccess 延长企业令牌
func (s *practiceService) ExtendAccess(ctx context.Context, actor integration.Actor, id string, req *ExtendAccessRequest) (*model.AccessGrantModel, error) {
	grant, err := s.manager.ExtendAccess(ctx, id, actor, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "extend", "access_grant", grant.ID, map[string]interface{}{
			"practice_id": id,
			"expires_at":  grant.ExpiresAt,
		})
	}
	return grant, nil
}

// ReissueAccess 重新签发企业令牌
func (s *practiceService) ReissueAccess(ctx context.Context, actor integration.Actor, id string) (*model.AccessGrantModel, error) {
	grant, err := s.manager.ReissueAccess(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "reissue", "access_grant", grant.ID, map[string]interface{}{
			"practice_id": id,
			"expires_at":  grant.ExpiresAt,
		})
	}
	return grant, nil
}

// CompanyView 企业查看实习
func (s *practiceService) CompanyView(ctx context.Context, token string) (*integration.CompanyView, error) {
	return s.manager.GetByToken(ctx, token)
}

// ConfirmStart 企业确认实习开始
func (s *practiceService) ConfirmStart(ctx context.Context, req *ConfirmStartRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.ConfirmStart(ctx, req.Token, req.Confirmacion, req.Respuestas)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, companyUser(res), statemachine.ActionConfirmStart, res, nil)
	return res, nil
}

// SubmitEvaluation 企业提交评估
func (s *practiceService) SubmitEvaluation(ctx context.Context, req *SubmitEvaluationRequest) (*integration.TransitionResult, error) {
	res, err := s.manager.SubmitEvaluation(ctx, req.Token, req.Respuestas)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, companyUser(res), statemachine.ActionSubmitEvaluation, res, nil)
	return res, nil
}
