package integration

import (
	"fmt"
	"net/url"

	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/statemachine"
)

// EventAccessReissued 重新签发访问令牌的通知事件
const EventAccessReissued = "reemitir_acceso"

// NotificationInput 生成通知所需的上下文
type NotificationInput struct {
	Event    string
	Practice *model.PracticeModel
	Grant    *model.AccessGrantModel
	Comment  string
	Target   statemachine.Recipient // rechazar 的责任方
}

// NotificationComposer 根据事件生成收件人和邮件内容
type NotificationComposer struct {
	coordinatorEmail string
	studentPortalURL string
	companyPortalURL string
}

// NewNotificationComposer 创建通知生成器
func NewNotificationComposer(cfg config.NotifyConfig) *NotificationComposer {
	return &NotificationComposer{
		coordinatorEmail: cfg.CoordinatorEmail,
		studentPortalURL: cfg.StudentPortalURL,
		companyPortalURL: cfg.CompanyPortalURL,
	}
}

// Compose 生成事件对应的通知
func (c *NotificationComposer) Compose(in NotificationInput) []*notify.Message {
	p := in.Practice
	student := p.StudentName
	if student == "" {
		student = p.StudentID
	}

	switch in.Event {
	case string(statemachine.ActionApply):
		return []*notify.Message{
			c.toCoordinator(in, "Nueva postulación de práctica",
				fmt.Sprintf("%s postuló a una práctica en %s. La postulación está pendiente de revisión.", student, p.CompanyName)),
			c.toStudent(in, "Postulación recibida",
				fmt.Sprintf("Tu postulación a %s fue recibida y será revisada por la coordinación.", p.CompanyName)),
		}

	case string(statemachine.ActionSendToCompany), EventAccessReissued:
		return c.toCompany(in, "Confirmación de práctica profesional",
			fmt.Sprintf("%s postuló a una práctica en %s. Complete y confirme el formulario en:\n%s", student, p.CompanyName, c.companyLink(in.Grant)))

	case string(statemachine.ActionConfirmStart), string(statemachine.ActionCorrect):
		return []*notify.Message{
			c.toCoordinator(in, "Práctica pendiente de validación",
				fmt.Sprintf("La práctica de %s en %s está lista para su validación.", student, p.CompanyName)),
		}

	case string(statemachine.ActionApprove):
		msgs := []*notify.Message{
			c.toStudent(in, "Práctica aprobada",
				fmt.Sprintf("Tu práctica en %s fue aprobada. Ya puedes registrar tu bitácora.", p.CompanyName)),
		}
		return append(msgs, c.toCompany(in, "Práctica aprobada",
			fmt.Sprintf("La práctica de %s fue aprobada por la coordinación.", student))...)

	case string(statemachine.ActionReject):
		var msgs []*notify.Message
		if in.Target == statemachine.RecipientStudent || in.Target == statemachine.RecipientBoth {
			msgs = append(msgs, c.toStudent(in, "Postulación con observaciones",
				fmt.Sprintf("La coordinación solicita correcciones a tu postulación:\n\n%s\n\n%s", in.Comment, c.studentPortalURL)))
		}
		if in.Target == statemachine.RecipientCompany || in.Target == statemachine.RecipientBoth {
			msgs = append(msgs, c.toCompany(in, "Postulación con observaciones",
				fmt.Sprintf("La coordinación solicita correcciones a la práctica de %s:\n\n%s\n\n%s", student, in.Comment, c.companyLink(in.Grant)))...)
		}
		return msgs

	case string(statemachine.ActionFinish):
		return c.toCompany(in, "Evaluación de práctica pendiente",
			fmt.Sprintf("La práctica de %s finalizó. Complete la evaluación en:\n%s", student, c.companyLink(in.Grant)))

	case string(statemachine.ActionSubmitEvaluation):
		return []*notify.Message{
			c.toCoordinator(in, "Evaluación recibida",
				fmt.Sprintf("%s envió la evaluación de la práctica de %s.", p.CompanyName, student)),
		}

	case string(statemachine.ActionClose):
		return []*notify.Message{
			c.toStudent(in, "Práctica cerrada",
				fmt.Sprintf("Tu práctica en %s fue cerrada por la coordinación.", p.CompanyName)),
		}

	case string(statemachine.ActionManualUpdate):
		return []*notify.Message{
			c.toStudent(in, "Estado de práctica actualizado",
				fmt.Sprintf("El estado de tu práctica en %s cambió a %s.", p.CompanyName, p.State)),
		}
	}
	return nil
}

func (c *NotificationComposer) message(in NotificationInput, audience, to, subject, body string) *notify.Message {
	return &notify.Message{
		PracticeID: in.Practice.ID,
		Event:      in.Event,
		Audience:   audience,
		To:         to,
		Subject:    subject,
		Body:       body,
	}
}

func (c *NotificationComposer) toStudent(in NotificationInput, subject, body string) *notify.Message {
	return c.message(in, notify.AudienceStudent, in.Practice.StudentEmail, subject, body)
}

func (c *NotificationComposer) toCoordinator(in NotificationInput, subject, body string) *notify.Message {
	return c.message(in, notify.AudienceCoordinator, c.coordinatorEmail, subject, body)
}

// toCompany 没有授权记录时无法联系企业
func (c *NotificationComposer) toCompany(in NotificationInput, subject, body string) []*notify.Message {
	if in.Grant == nil {
		return nil
	}
	return []*notify.Message{c.message(in, notify.AudienceCompany, in.Grant.CompanyEmail, subject, body)}
}

func (c *NotificationComposer) companyLink(grant *model.AccessGrantModel) string {
	if grant == nil {
		return c.companyPortalURL
	}
	return c.companyPortalURL + "?token=" + url.QueryEscape(grant.Token)
}
