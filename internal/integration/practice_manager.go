package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Actor 操作者
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  statemachine.Role
}

// SystemActor 定时任务使用的操作者
var SystemActor = Actor{ID: "sistema", Name: "sistema", Role: statemachine.RoleSystem}

// ApplyCommand 学生提交实习申请
type ApplyCommand struct {
	Actor        Actor
	CompanyName  string
	CompanyEmail string
	CompanyRef   string
	Level        int
	StartDate    *time.Time
	EndDate      *time.Time
	Answers      form.Answers
}

func (c *ApplyCommand) validate() error {
	if c.Level == 0 {
		c.Level = 1
	}
	if c.Level != 1 && c.Level != 2 {
		return apperror.Validation("nivel must be 1 or 2", "nivel")
	}
	if strings.TrimSpace(c.CompanyName) == "" {
		return apperror.Validation("empresa_nombre is required", "empresa_nombre")
	}
	if strings.TrimSpace(c.CompanyEmail) == "" {
		return apperror.Validation("empresa_correo is required", "empresa_correo")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return apperror.Validation("fecha_termino must not be before fecha_inicio", "fecha_termino")
	}
	return nil
}

// EvaluateDecision 协调员对申请的审核决定
type EvaluateDecision struct {
	Decision      string
	Observaciones string
	Destinatario  string
}

// TransitionResult 转换结果
type TransitionResult struct {
	Practice         *model.PracticeModel
	Document         *model.AnswerDocumentModel
	Grant            *model.AccessGrantModel
	AlreadyProcessed bool
	// Waiting 表示一方已修正,另一方仍需修正
	Waiting bool
}

// CompanyView 企业通过令牌看到的实习信息
type CompanyView struct {
	Practice       *model.PracticeModel
	Grant          *model.AccessGrantModel
	Postulation    []form.ProjectedField
	EvaluationKind string
	Evaluation     []form.ProjectedField
}

// PracticeManager 实习状态机的执行者
// 每个操作在单个事务中完成:行锁、状态判定、答案合并、带版本号的更新和历史记录
// 通知和观察者只在事务提交后触发
type PracticeManager struct {
	db         *gorm.DB
	templates  *TemplateManager
	grants     *AccessGrantManager
	dispatcher Dispatcher
	composer   *NotificationComposer
	observers  []TransitionObserver
	logger     *logrus.Logger
	now        func() time.Time
}

// NewPracticeManager 创建实习管理器
func NewPracticeManager(db *gorm.DB, templates *TemplateManager, grants *AccessGrantManager, dispatcher Dispatcher, composer *NotificationComposer, logger *logrus.Logger) *PracticeManager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PracticeManager{
		db:         db,
		templates:  templates,
		grants:     grants,
		dispatcher: dispatcher,
		composer:   composer,
		logger:     logger,
		now:        time.Now,
	}
}

// AddObserver 注册转换观察者
func (m *PracticeManager) AddObserver(o TransitionObserver) {
	m.observers = append(m.observers, o)
}

// WithClock 替换时钟,授权管理器同步使用该时钟
func (m *PracticeManager) WithClock(now func() time.Time) *PracticeManager {
	clone := *m
	clone.now = now
	clone.grants = m.grants.WithClock(now)
	return &clone
}

// txScope 绑定到同一事务的仓储
type txScope struct {
	practices repository.PracticeRepository
	documents repository.AnswerDocumentRepository
	history   repository.StateHistoryRepository
	templates *TemplateManager
	grants    *AccessGrantManager
}

func (m *PracticeManager) scope(tx *gorm.DB) *txScope {
	return &txScope{
		practices: repository.NewPracticeRepository(tx),
		documents: repository.NewAnswerDocumentRepository(tx),
		history:   repository.NewStateHistoryRepository(tx),
		templates: m.templates.WithTx(tx),
		grants:    m.grants.WithTx(tx),
	}
}

// pending 事务提交后要执行的副作用
type pending struct {
	event  TransitionEvent
	reason string
	notice *NotificationInput
}

func (p *pending) track(pr *model.PracticeModel, from statemachine.State, actor Actor) {
	p.event.PracticeID = pr.ID
	p.event.StudentID = pr.StudentID
	p.event.From = from
	p.event.To = pr.CurrentState()
	p.event.ActorID = actor.ID
	p.event.ActorRole = actor.Role
}

// stepContext 单次转换的上下文
type stepContext struct {
	ctx    context.Context
	s      *txScope
	p      *model.PracticeModel
	from   statemachine.State
	action statemachine.Action
	actor  Actor
	now    time.Time
	res    *TransitionResult
	post   *pending
}

func (m *PracticeManager) run(ctx context.Context, action statemachine.Action, actor Actor, fn func(s *txScope, post *pending) (*TransitionResult, error)) (*TransitionResult, error) {
	post := &pending{event: TransitionEvent{Action: action, ActorID: actor.ID, ActorRole: actor.Role}}

	var result *TransitionResult
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := fn(m.scope(tx), post)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		post.event.Result, post.event.ErrorKind = resultOf(err)
		post.event.At = m.now()
		m.publish(post.event)
		return nil, err
	}

	m.afterCommit(ctx, post, result)
	return result, nil
}

func (m *PracticeManager) afterCommit(ctx context.Context, post *pending, res *TransitionResult) {
	evt := post.event
	evt.At = m.now()
	switch {
	case res.AlreadyProcessed:
		evt.Result = ResultAlreadyProcessed
	case res.Waiting:
		evt.Result = ResultWaiting
	default:
		evt.Result = ResultApplied
	}

	m.logger.WithContext(ctx).WithFields(logrus.Fields{
		"practice_id": evt.PracticeID,
		"action":      evt.Action,
		"from":        evt.From,
		"to":          evt.To,
		"actor":       evt.ActorID,
		"result":      evt.Result,
	}).Info("practice transition")

	if post.notice != nil && !res.AlreadyProcessed && m.dispatcher != nil && m.composer != nil {
		m.dispatcher.Dispatch(ctx, m.composer.Compose(*post.notice))
	}
	m.publish(evt)
}

func (m *PracticeManager) publish(evt TransitionEvent) {
	for _, o := range m.observers {
		o.OnTransition(evt)
	}
}

func (s *txScope) lock(id string) (*model.PracticeModel, error) {
	p, err := s.practices.FindByIDForUpdate(id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("practice")
		}
		return nil, fmt.Errorf("failed to load practice: %w", err)
	}
	return p, nil
}

func (s *txScope) save(p *model.PracticeModel) error {
	ok, err := s.practices.UpdateVersioned(p)
	if err != nil {
		return fmt.Errorf("failed to update practice: %w", err)
	}
	if !ok {
		return apperror.StateConflict("practice was modified concurrently")
	}
	return nil
}

func (s *txScope) record(p *model.PracticeModel, from statemachine.State, action statemachine.Action, actor Actor, reason string, at time.Time) error {
	history := &model.StateHistoryModel{
		ID:           uuid.New().String(),
		PracticeID:   p.ID,
		FromState:    string(from),
		ToState:      p.State,
		Action:       string(action),
		Reason:       reason,
		Operator:     actor.ID,
		OperatorRole: string(actor.Role),
		CreatedAt:    at,
	}
	if err := history.Validate(); err != nil {
		return err
	}
	if err := s.history.Save(history); err != nil {
		return fmt.Errorf("failed to save state history: %w", err)
	}
	return nil
}

// document 查找答案文档,不存在时返回一份未保存的草稿
func (s *txScope) document(p *model.PracticeModel, tpl *model.FormTemplateModel, now time.Time) (*model.AnswerDocumentModel, bool, error) {
	doc, err := s.documents.FindByPracticeAndTemplate(p.ID, tpl.ID)
	if err == nil {
		return doc, false, nil
	}
	if !database.IsNotFound(err) {
		return nil, false, fmt.Errorf("failed to load answer document: %w", err)
	}
	return &model.AnswerDocumentModel{
		ID:           uuid.New().String(),
		PracticeID:   p.ID,
		TemplateID:   tpl.ID,
		TemplateKind: tpl.Kind,
		Answers:      []byte("{}"),
		Status:       model.DocumentDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, true, nil
}

func (s *txScope) saveDocument(doc *model.AnswerDocumentModel, isNew bool) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	var err error
	if isNew {
		err = s.documents.Create(doc)
	} else {
		err = s.documents.Save(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to save answer document: %w", err)
	}
	return nil
}

// grantFor 实习的企业授权,不存在时返回 nil
func (s *txScope) grantFor(ctx context.Context, practiceID string) (*model.AccessGrantModel, error) {
	grant, err := s.grants.FindByPractice(ctx, practiceID)
	if apperror.Is(err, apperror.KindNotFound) {
		return nil, nil
	}
	return grant, err
}

// fillAnswers 合并作者的答案并检查其负责的必填字段
func fillAnswers(doc *model.AnswerDocumentModel, schema *form.Schema, incoming form.Answers, author form.Owner) error {
	existing, err := doc.DecodeAnswers()
	if err != nil {
		return err
	}
	merged := form.Merge(existing, incoming, schema, author)
	if missing := form.MissingRequired(merged, schema, author); len(missing) > 0 {
		return apperror.Validation("missing required fields: "+strings.Join(missing, ", "), missing...)
	}
	if err := doc.SetAnswers(merged); err != nil {
		return err
	}
	doc.LastAuthor = string(author)
	return nil
}

// step 对已加锁的实习执行一次转换
func (m *PracticeManager) step(ctx context.Context, s *txScope, p *model.PracticeModel, actor Actor, action statemachine.Action, post *pending, mutate func(c *stepContext) error) (*TransitionResult, error) {
	from := p.CurrentState()
	post.track(p, from, actor)

	// 他人的实习一律按无权限处理,先于状态检查
	if actor.Role == statemachine.RoleStudent && p.StudentID != actor.ID {
		return nil, apperror.Permission("practice belongs to another student")
	}
	out, err := statemachine.Decide(from, action, actor.Role)
	if err != nil {
		return nil, err
	}

	res := &TransitionResult{Practice: p}
	if out.AlreadyDone {
		res.AlreadyProcessed = true
		return res, nil
	}

	now := m.now()
	p.State = string(out.To)
	p.UpdatedAt = now
	if mutate != nil {
		c := &stepContext{ctx: ctx, s: s, p: p, from: from, action: action, actor: actor, now: now, res: res, post: post}
		if err := mutate(c); err != nil {
			return nil, err
		}
	}

	if err := s.save(p); err != nil {
		return nil, err
	}
	if p.CurrentState() != from {
		if err := s.record(p, from, action, actor, post.reason, now); err != nil {
			return nil, err
		}
	}
	post.track(p, from, actor)
	return res, nil
}

func (m *PracticeManager) transition(ctx context.Context, id string, actor Actor, action statemachine.Action, mutate func(c *stepContext) error) (*TransitionResult, error) {
	return m.run(ctx, action, actor, func(s *txScope, post *pending) (*TransitionResult, error) {
		p, err := s.lock(id)
		if err != nil {
			return nil, err
		}
		return m.step(ctx, s, p, actor, action, post, mutate)
	})
}

func (c *stepContext) notify(grant *model.AccessGrantModel, comment string, target statemachine.Recipient) {
	c.post.notice = &NotificationInput{
		Event:    string(c.action),
		Practice: c.p,
		Grant:    grant,
		Comment:  comment,
		Target:   target,
	}
}

func (c *stepContext) notifyWithGrant(comment string, target statemachine.Recipient) error {
	grant, err := c.s.grantFor(c.ctx, c.p.ID)
	if err != nil {
		return err
	}
	c.notify(grant, comment, target)
	return nil
}

func companyActor(grant *model.AccessGrantModel) Actor {
	id := grant.CompanyEmail
	if id == "" {
		id = "empresa:" + grant.PracticeID
	}
	return Actor{ID: id, Name: grant.CompanyName, Email: grant.CompanyEmail, Role: statemachine.RoleCompany}
}

// Apply 学生提交实习申请 (postular)
func (m *PracticeManager) Apply(ctx context.Context, cmd ApplyCommand) (*TransitionResult, error) {
	return m.run(ctx, statemachine.ActionApply, cmd.Actor, func(s *txScope, post *pending) (*TransitionResult, error) {
		out, err := statemachine.Decide(statemachine.StateNone, statemachine.ActionApply, cmd.Actor.Role)
		if err != nil {
			return nil, err
		}
		if err := cmd.validate(); err != nil {
			return nil, err
		}

		count, err := s.practices.CountActiveByStudent(cmd.Actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count active practices: %w", err)
		}
		if count > 0 {
			return nil, apperror.Duplicate("student already has an active practice")
		}

		tpl, schema, err := s.templates.SchemaFor(ctx, form.KindPostulation)
		if err != nil {
			return nil, err
		}

		now := m.now()
		p := &model.PracticeModel{
			ID:           uuid.New().String(),
			StudentID:    cmd.Actor.ID,
			StudentName:  cmd.Actor.Name,
			StudentEmail: cmd.Actor.Email,
			CompanyRef:   cmd.CompanyRef,
			CompanyName:  cmd.CompanyName,
			State:        string(out.To),
			Level:        cmd.Level,
			StartDate:    cmd.StartDate,
			EndDate:      cmd.EndDate,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		doc, _, err := s.document(p, tpl, now)
		if err != nil {
			return nil, err
		}
		if err := fillAnswers(doc, schema, cmd.Answers, form.OwnerStudent); err != nil {
			return nil, err
		}

		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := s.practices.Create(p); err != nil {
			if database.IsUniqueViolation(err) {
				return nil, apperror.Duplicate("student already has an active practice")
			}
			return nil, fmt.Errorf("failed to create practice: %w", err)
		}
		if err := s.saveDocument(doc, true); err != nil {
			return nil, err
		}
		if err := s.record(p, statemachine.StateNone, statemachine.ActionApply, cmd.Actor, "", now); err != nil {
			return nil, err
		}

		grant, err := s.grants.Issue(ctx, p.ID, cmd.CompanyName, cmd.CompanyEmail)
		if err != nil {
			return nil, err
		}

		post.track(p, statemachine.StateNone, cmd.Actor)
		post.notice = &NotificationInput{Event: string(statemachine.ActionApply), Practice: p, Grant: grant}
		return &TransitionResult{Practice: p, Document: doc, Grant: grant}, nil
	})
}

// SendToCompany 协调员将申请转交企业 (enviar_a_empresa)
func (m *PracticeManager) SendToCompany(ctx context.Context, id string, actor Actor) (*TransitionResult, error) {
	return m.transition(ctx, id, actor, statemachine.ActionSendToCompany, func(c *stepContext) error {
		return c.notifyWithGrant("", "")
	})
}

// ConfirmStart 企业确认实习开始 (confirmar_inicio)
func (m *PracticeManager) ConfirmStart(ctx context.Context, token string, confirm bool, answers form.Answers) (*TransitionResult, error) {
	action := statemachine.ActionConfirmStart
	return m.run(ctx, action, Actor{Role: statemachine.RoleCompany}, func(s *txScope, post *pending) (*TransitionResult, error) {
		grant, err := s.grants.Validate(ctx, token)
		if err != nil {
			return nil, err
		}
		if !confirm {
			return nil, apperror.Validation("confirmacion must be true", "confirmacion")
		}
		p, err := s.lock(grant.PracticeID)
		if err != nil {
			return nil, err
		}

		return m.step(ctx, s, p, companyActor(grant), action, post, func(c *stepContext) error {
			c.res.Grant = grant
			if c.from == statemachine.StateRejected && statemachine.Recipient(p.CorrectionTarget) == statemachine.RecipientStudent {
				return apperror.StateConflict("correction is assigned to the student")
			}
			return m.submitPostulation(c, form.OwnerCompany, answers, grant)
		})
	})
}

// Correct 学生在驳回后修正申请 (corregir_postulacion)
func (m *PracticeManager) Correct(ctx context.Context, id string, actor Actor, answers form.Answers) (*TransitionResult, error) {
	return m.transition(ctx, id, actor, statemachine.ActionCorrect, func(c *stepContext) error {
		if statemachine.Recipient(c.p.CorrectionTarget) == statemachine.RecipientCompany {
			return apperror.StateConflict("correction is assigned to the company")
		}
		grant, err := c.s.grantFor(c.ctx, c.p.ID)
		if err != nil {
			return err
		}
		return m.submitPostulation(c, form.OwnerStudent, answers, grant)
	})
}

// submitPostulation 合并申请答案,所有责任方都修正后进入待验证状态
func (m *PracticeManager) submitPostulation(c *stepContext, author form.Owner, answers form.Answers, grant *model.AccessGrantModel) error {
	tpl, schema, err := c.s.templates.SchemaFor(c.ctx, form.KindPostulation)
	if err != nil {
		return err
	}
	doc, isNew, err := c.s.document(c.p, tpl, c.now)
	if err != nil {
		return err
	}
	if err := fillAnswers(doc, schema, answers, author); err != nil {
		return err
	}
	doc.UpdatedAt = c.now
	c.res.Document = doc

	p := c.p
	if c.from == statemachine.StateRejected {
		if author == form.OwnerCompany {
			p.CompanyCorrected = true
		} else {
			p.StudentCorrected = true
		}
		target := statemachine.Recipient(p.CorrectionTarget)
		if !statemachine.CorrectionSatisfied(target, p.StudentCorrected, p.CompanyCorrected) {
			p.State = string(statemachine.StateRejected)
			c.res.Waiting = true
			return c.s.saveDocument(doc, isNew)
		}
	}

	doc.Status = model.DocumentSubmitted
	doc.SubmittedAt = &c.now
	if p.StartDate == nil {
		p.StartDate = &c.now
	}
	p.CorrectionTarget = ""
	p.StudentCorrected = false
	p.CompanyCorrected = false

	if err := c.s.saveDocument(doc, isNew); err != nil {
		return err
	}
	c.notify(grant, "", "")
	return nil
}

// Evaluate 协调员审核申请 (aprobar / rechazar)
func (m *PracticeManager) Evaluate(ctx context.Context, id string, actor Actor, d EvaluateDecision) (*TransitionResult, error) {
	var action statemachine.Action
	switch d.Decision {
	case string(statemachine.ActionApprove):
		action = statemachine.ActionApprove
	case string(statemachine.ActionReject):
		action = statemachine.ActionReject
	default:
		return nil, apperror.Validation("decision must be aprobar or rechazar", "decision")
	}

	return m.transition(ctx, id, actor, action, func(c *stepContext) error {
		var target statemachine.Recipient
		if action == statemachine.ActionReject {
			if strings.TrimSpace(d.Observaciones) == "" {
				return apperror.Validation("observaciones is required when rejecting", "observaciones")
			}
			r, err := statemachine.ParseRecipient(d.Destinatario)
			if err != nil {
				return err
			}
			target = r
		}

		tpl, err := c.s.templates.GetByKind(c.ctx, form.KindPostulation)
		if err != nil {
			return err
		}
		doc, isNew, err := c.s.document(c.p, tpl, c.now)
		if err != nil {
			return err
		}

		p := c.p
		p.StudentCorrected = false
		p.CompanyCorrected = false
		if action == statemachine.ActionApprove {
			p.StartDate = &c.now
			p.CorrectionTarget = ""
			doc.Status = model.DocumentApproved
			if d.Observaciones != "" {
				doc.CoordinatorComment = d.Observaciones
			}
		} else {
			p.CorrectionTarget = string(target)
			doc.Status = model.DocumentRejected
			doc.CoordinatorComment = d.Observaciones
			c.post.reason = d.Observaciones
		}
		doc.UpdatedAt = c.now
		if err := c.s.saveDocument(doc, isNew); err != nil {
			return err
		}
		c.res.Document = doc
		return c.notifyWithGrant(d.Observaciones, target)
	})
}

// SubmitLogbook 学生提交实习日志 (registrar_bitacora)
func (m *PracticeManager) SubmitLogbook(ctx context.Context, id string, actor Actor, answers form.Answers) (*TransitionResult, error) {
	return m.transition(ctx, id, actor, statemachine.ActionLogbook, func(c *stepContext) error {
		tpl, schema, err := c.s.templates.SchemaFor(c.ctx, form.KindLogbook)
		if err != nil {
			return err
		}
		doc, isNew, err := c.s.document(c.p, tpl, c.now)
		if err != nil {
			return err
		}
		if err := fillAnswers(doc, schema, answers, form.OwnerStudent); err != nil {
			return err
		}
		doc.Status = model.DocumentSubmitted
		doc.SubmittedAt = &c.now
		doc.UpdatedAt = c.now
		c.res.Document = doc
		return c.s.saveDocument(doc, isNew)
	})
}

// Finish 结束实习并开启企业评估 (finalizar)
func (m *PracticeManager) Finish(ctx context.Context, id string, actor Actor) (*TransitionResult, error) {
	return m.transition(ctx, id, actor, statemachine.ActionFinish, func(c *stepContext) error {
		c.p.EvaluationPending = true
		if c.p.EndDate == nil {
			c.p.EndDate = &c.now
		}
		return c.notifyWithGrant("", "")
	})
}

// FinishDue 结束所有已过结束日期的进行中实习,返回结束的数量
func (m *PracticeManager) FinishDue(ctx context.Context) (int, error) {
	due, err := repository.NewPracticeRepository(m.db.WithContext(ctx)).FindDueForFinish(m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to find due practices: %w", err)
	}

	finished := 0
	var errs []error
	for _, p := range due {
		if _, err := m.Finish(ctx, p.ID, SystemActor); err != nil {
			// 并发请求已经推进了状态
			if apperror.Is(err, apperror.KindStateConflict) {
				m.logger.WithContext(ctx).WithField("practice_id", p.ID).Debug("practice already moved, skipping")
				continue
			}
			errs = append(errs, fmt.Errorf("practice %s: %w", p.ID, err))
			continue
		}
		finished++
	}
	return finished, errors.Join(errs...)
}

// SubmitEvaluation 企业提交评估 (enviar_evaluacion)
func (m *PracticeManager) SubmitEvaluation(ctx context.Context, token string, answers form.Answers) (*TransitionResult, error) {
	action := statemachine.ActionSubmitEvaluation
	return m.run(ctx, action, Actor{Role: statemachine.RoleCompany}, func(s *txScope, post *pending) (*TransitionResult, error) {
		grant, err := s.grants.Validate(ctx, token)
		if err != nil {
			return nil, err
		}
		p, err := s.lock(grant.PracticeID)
		if err != nil {
			return nil, err
		}
		actor := companyActor(grant)
		if p.EvaluationCompleted {
			post.track(p, p.CurrentState(), actor)
			return &TransitionResult{Practice: p, Grant: grant, AlreadyProcessed: true}, nil
		}

		return m.step(ctx, s, p, actor, action, post, func(c *stepContext) error {
			if !c.p.EvaluationPending {
				return apperror.StateConflict("no evaluation is pending for this practice")
			}
			tpl, schema, err := c.s.templates.SchemaFor(c.ctx, c.p.EvaluationKind())
			if err != nil {
				return err
			}
			doc, isNew, err := c.s.document(c.p, tpl, c.now)
			if err != nil {
				return err
			}
			if err := fillAnswers(doc, schema, answers, form.OwnerCompany); err != nil {
				return err
			}
			doc.Status = model.DocumentSubmitted
			doc.SubmittedAt = &c.now
			doc.UpdatedAt = c.now
			if err := c.s.saveDocument(doc, isNew); err != nil {
				return err
			}
			c.res.Document = doc

			c.res.Grant = grant
			c.p.EvaluationPending = false
			c.p.EvaluationCompleted = true
			c.notify(grant, "", "")
			return nil
		})
	})
}

// Close 协调员关闭实习 (cerrar)
func (m *PracticeManager) Close(ctx context.Context, id string, actor Actor) (*TransitionResult, error) {
	return m.transition(ctx, id, actor, statemachine.ActionClose, func(c *stepContext) error {
		c.p.ClosedAt = &c.now
		c.p.ClosedBy = c.actor.ID
		c.notify(nil, "", "")
		return nil
	})
}

// UpdateState 协调员手动推进状态 (actualizar_estado)
func (m *PracticeManager) UpdateState(ctx context.Context, id string, actor Actor, target string, reason string) (*TransitionResult, error) {
	action := statemachine.ActionManualUpdate
	return m.run(ctx, action, actor, func(s *txScope, post *pending) (*TransitionResult, error) {
		p, err := s.lock(id)
		if err != nil {
			return nil, err
		}
		from := p.CurrentState()
		post.track(p, from, actor)

		out, err := statemachine.DecideManual(from, statemachine.State(target), actor.Role)
		if err != nil {
			return nil, err
		}

		now := m.now()
		p.State = string(out.To)
		p.UpdatedAt = now
		switch out.To {
		case statemachine.StatePendingValidation:
			p.CorrectionTarget = ""
			p.StudentCorrected = false
			p.CompanyCorrected = false
		case statemachine.StateFinished:
			p.EvaluationPending = true
			if p.EndDate == nil {
				p.EndDate = &now
			}
		}

		if err := s.save(p); err != nil {
			return nil, err
		}
		if err := s.record(p, from, action, actor, reason, now); err != nil {
			return nil, err
		}

		post.track(p, from, actor)
		post.notice = &NotificationInput{Event: string(action), Practice: p}
		return &TransitionResult{Practice: p}, nil
	})
}

// Get 获取实习
func (m *PracticeManager) Get(ctx context.Context, id string) (*model.PracticeModel, error) {
	p, err := repository.NewPracticeRepository(m.db.WithContext(ctx)).FindByID(id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("practice")
		}
		return nil, fmt.Errorf("failed to get practice: %w", err)
	}
	return p, nil
}

// GetByToken 企业通过令牌查看实习和表单
func (m *PracticeManager) GetByToken(ctx context.Context, token string) (*CompanyView, error) {
	grant, err := m.grants.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	p, err := m.Get(ctx, grant.PracticeID)
	if err != nil {
		return nil, err
	}

	view := &CompanyView{Practice: p, Grant: grant}
	view.Postulation, err = m.project(ctx, p, form.KindPostulation)
	if err != nil {
		return nil, err
	}
	if p.EvaluationPending || p.EvaluationCompleted {
		view.EvaluationKind = p.EvaluationKind()
		view.Evaluation, err = m.project(ctx, p, view.EvaluationKind)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// project 按模板顺序投影实习在某类表单下的答案
func (m *PracticeManager) project(ctx context.Context, p *model.PracticeModel, kind string) ([]form.ProjectedField, error) {
	tpl, schema, err := m.templates.SchemaFor(ctx, kind)
	if err != nil {
		return nil, err
	}
	answers := form.Answers{}
	doc, err := repository.NewAnswerDocumentRepository(m.db.WithContext(ctx)).FindByPracticeAndTemplate(p.ID, tpl.ID)
	switch {
	case err == nil:
		if answers, err = doc.DecodeAnswers(); err != nil {
			return nil, err
		}
	case !database.IsNotFound(err):
		return nil, fmt.Errorf("failed to load answer document: %w", err)
	}
	return form.Project(answers, schema), nil
}

// Delete 协调员删除实习,级联删除文档、授权和历史
func (m *PracticeManager) Delete(ctx context.Context, id string, actor Actor) error {
	if actor.Role != statemachine.RoleCoordinator {
		return apperror.Permission("only coordinators can delete practices")
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := m.scope(tx)
		if _, err := s.lock(id); err != nil {
			return err
		}
		if err := s.practices.Delete(id); err != nil {
			return fmt.Errorf("failed to delete practice: %w", err)
		}
		return nil
	})
}

// ExtendAccess 延长企业令牌有效期
func (m *PracticeManager) ExtendAccess(ctx context.Context, id string, actor Actor, ttl time.Duration) (*model.AccessGrantModel, error) {
	if actor.Role != statemachine.RoleCoordinator {
		return nil, apperror.Permission("only coordinators can manage access tokens")
	}
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.grants.Extend(ctx, id, ttl)
}

// ReissueAccess 重新签发企业令牌并通知企业
func (m *PracticeManager) ReissueAccess(ctx context.Context, id string, actor Actor) (*model.AccessGrantModel, error) {
	if actor.Role != statemachine.RoleCoordinator {
		return nil, apperror.Permission("only coordinators can manage access tokens")
	}

	var p *model.PracticeModel
	var grant *model.AccessGrantModel
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := m.scope(tx)
		var err error
		if p, err = s.lock(id); err != nil {
			return err
		}
		if p.CurrentState() == statemachine.StateClosed {
			return apperror.StateConflict("cannot reissue access for a closed practice")
		}
		grant, err = s.grants.Reissue(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if m.dispatcher != nil && m.composer != nil {
		m.dispatcher.Dispatch(ctx, m.composer.Compose(NotificationInput{Event: EventAccessReissued, Practice: p, Grant: grant}))
	}
	return grant, nil
}
