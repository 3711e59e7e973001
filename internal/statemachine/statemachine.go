package statemachine

import (
	"fmt"

	"github.com/mautops/practica-gin/internal/apperror"
)

// State 实习状态
type State string

const (
	StateNone              State = ""
	StatePendingReview     State = "pending_review"
	StateSentToCompany     State = "enviada_a_empresa"
	StateRejected          State = "rechazada"
	StatePendingValidation State = "pendiente_validacion"
	StateInProgress        State = "en_curso"
	StateFinished          State = "finalizada"
	StateEvaluated         State = "evaluada"
	StateClosed            State = "cerrada"
)

// Role 操作者角色
type Role string

const (
	RoleStudent     Role = "alumno"
	RoleCompany     Role = "empresa"
	RoleCoordinator Role = "coordinador"
	RoleSystem      Role = "sistema"
)

// Action 状态转换动作
type Action string

const (
	ActionApply            Action = "postular"
	ActionSendToCompany    Action = "enviar_a_empresa"
	ActionConfirmStart     Action = "confirmar_inicio"
	ActionCorrect          Action = "corregir_postulacion"
	ActionApprove          Action = "aprobar"
	ActionReject           Action = "rechazar"
	ActionLogbook          Action = "registrar_bitacora"
	ActionFinish           Action = "finalizar"
	ActionSubmitEvaluation Action = "enviar_evaluacion"
	ActionClose            Action = "cerrar"
	ActionManualUpdate     Action = "actualizar_estado"
)

// Recipient 驳回后负责修正的一方
type Recipient string

const (
	RecipientStudent Recipient = "alumno"
	RecipientCompany Recipient = "empresa"
	RecipientBoth    Recipient = "ambos"
)

// order 状态先后顺序,用于单调性检查
var order = map[State]int{
	StatePendingReview:     1,
	StateSentToCompany:     2,
	StateRejected:          3,
	StatePendingValidation: 4,
	StateInProgress:        5,
	StateFinished:          6,
	StateEvaluated:         7,
	StateClosed:            8,
}

// Rule 转换规则
type Rule struct {
	Action Action
	Roles  []Role
	From   []State
	To     State
	// Replay 中的状态表示该动作已经完成,重复请求按成功处理
	Replay []State
}

// Table 完整的转换表
var Table = []Rule{
	{Action: ActionApply, Roles: []Role{RoleStudent}, From: []State{StateNone}, To: StatePendingReview},
	{Action: ActionSendToCompany, Roles: []Role{RoleCoordinator}, From: []State{StatePendingReview}, To: StateSentToCompany},
	{Action: ActionConfirmStart, Roles: []Role{RoleCompany}, From: []State{StateSentToCompany, StateRejected}, To: StatePendingValidation},
	{Action: ActionCorrect, Roles: []Role{RoleStudent}, From: []State{StateRejected}, To: StatePendingValidation},
	{Action: ActionApprove, Roles: []Role{RoleCoordinator}, From: []State{StatePendingValidation}, To: StateInProgress, Replay: []State{StateInProgress}},
	{Action: ActionReject, Roles: []Role{RoleCoordinator}, From: []State{StatePendingValidation}, To: StateRejected},
	{Action: ActionLogbook, Roles: []Role{RoleStudent}, From: []State{StateInProgress}, To: StateInProgress},
	{Action: ActionFinish, Roles: []Role{RoleCoordinator, RoleSystem}, From: []State{StateInProgress}, To: StateFinished},
	{Action: ActionSubmitEvaluation, Roles: []Role{RoleCompany}, From: []State{StateFinished}, To: StateEvaluated, Replay: []State{StateEvaluated, StateClosed}},
	{Action: ActionClose, Roles: []Role{RoleCoordinator}, From: []State{StateEvaluated}, To: StateClosed, Replay: []State{StateClosed}},
}

// ManualTargets actualizar_estado 允许的目标状态
var ManualTargets = []State{StateSentToCompany, StatePendingValidation, StateFinished}

// Outcome 转换结果
type Outcome struct {
	From        State
	To          State
	AlreadyDone bool
}

// ruleFor 查找动作对应的规则
func ruleFor(action Action) (Rule, bool) {
	for _, r := range Table {
		if r.Action == action {
			return r, true
		}
	}
	return Rule{}, false
}

// Decide 判断 role 在 from 状态下执行 action 的结果
// 检查顺序固定:动作 → 角色 → 重放 → 来源状态
func Decide(from State, action Action, role Role) (Outcome, error) {
	rule, ok := ruleFor(action)
	if !ok {
		return Outcome{}, apperror.Validation(fmt.Sprintf("unknown action %q", action), "action")
	}
	if !containsRole(rule.Roles, role) {
		return Outcome{}, apperror.Permission(fmt.Sprintf("action %s requires role %s", action, apperror.JoinStates(rule.Roles)))
	}
	if containsState(rule.Replay, from) {
		return Outcome{From: from, To: from, AlreadyDone: true}, nil
	}
	if !containsState(rule.From, from) {
		if from == StateNone {
			return Outcome{}, apperror.StateConflictf("cannot %s: practice does not exist", action)
		}
		return Outcome{}, apperror.StateConflictf("cannot %s practice in state %q: expected %s", action, from, apperror.JoinStates(rule.From))
	}
	return Outcome{From: from, To: rule.To}, nil
}

// DecideManual actualizar_estado 的规则
// 只能向前推进,不能越过验证关口,也不能用于 aprobar/cerrar 路径
func DecideManual(from State, to State, role Role) (Outcome, error) {
	if role != RoleCoordinator {
		return Outcome{}, apperror.Permission(fmt.Sprintf("action %s requires role %s", ActionManualUpdate, RoleCoordinator))
	}
	if !containsState(ManualTargets, to) {
		return Outcome{}, apperror.Validation(fmt.Sprintf("state %q is not a manual target: expected %s", to, apperror.JoinStates(ManualTargets)), "estado")
	}
	if from == StateClosed {
		return Outcome{}, apperror.StateConflict("cannot update state of a closed practice")
	}
	if order[to] <= order[from] {
		return Outcome{}, apperror.StateConflictf("cannot move practice from %q back to %q", from, to)
	}
	if order[to] > order[StateInProgress] && order[from] < order[StateInProgress] {
		return Outcome{}, apperror.StateConflictf("cannot move practice from %q to %q without approval", from, to)
	}
	return Outcome{From: from, To: to}, nil
}

// CorrectionSatisfied 判断驳回后所有负责方是否都已修正
func CorrectionSatisfied(target Recipient, studentCorrected, companyCorrected bool) bool {
	switch target {
	case RecipientStudent:
		return studentCorrected
	case RecipientCompany:
		return companyCorrected
	case RecipientBoth:
		return studentCorrected && companyCorrected
	}
	// 未记录责任方时任意一方修正即可推进
	return studentCorrected || companyCorrected
}

// ParseRecipient 解析驳回责任方
func ParseRecipient(s string) (Recipient, error) {
	switch r := Recipient(s); r {
	case RecipientStudent, RecipientCompany, RecipientBoth:
		return r, nil
	}
	return "", apperror.Validation("destinatario must be one of alumno, empresa, ambos", "destinatario")
}

// ActiveStates 非终止状态,一个学生同时只能有一条处于这些状态的实习
func ActiveStates() []State {
	return []State{
		StatePendingReview,
		StateSentToCompany,
		StateRejected,
		StatePendingValidation,
		StateInProgress,
		StateFinished,
		StateEvaluated,
	}
}

// AllStates 所有状态
func AllStates() []State {
	return append(ActiveStates(), StateClosed)
}

// IsValid 判断状态是否存在
func IsValid(s State) bool {
	_, ok := order[s]
	return ok
}

func containsRole(roles []Role, r Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func containsState(states []State, s State) bool {
	for _, x := range states {
		if x == s {
			return true
		}
	}
	return false
}
