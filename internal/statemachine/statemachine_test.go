package statemachine_test

import (
	"testing"

	"github.com/mautops/practica-gin/internal/apperror"
	sm "github.com/mautops/practica-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roles = []sm.Role{sm.RoleStudent, sm.RoleCompany, sm.RoleCoordinator, sm.RoleSystem}

// TestDecide_TotalAndDeterministic 测试每个 (状态, 动作, 角色) 组合都有确定结果
func TestDecide_TotalAndDeterministic(t *testing.T) {
	states := append([]sm.State{sm.StateNone}, sm.AllStates()...)
	for _, rule := range sm.Table {
		for _, from := range states {
			for _, role := range roles {
				first, err1 := sm.Decide(from, rule.Action, role)
				second, err2 := sm.Decide(from, rule.Action, role)

				assert.Equal(t, first, second)
				assert.Equal(t, err1, err2)
				if err1 != nil {
					kind := apperror.KindOf(err1)
					assert.Contains(t, []apperror.Kind{apperror.KindPermission, apperror.KindStateConflict}, kind,
						"state=%s action=%s role=%s", from, rule.Action, role)
				} else {
					assert.True(t, first.AlreadyDone || first.To == rule.To)
				}
			}
		}
	}
}

// TestDecide_Close 测试只能从 evaluada 关闭
func TestDecide_Close(t *testing.T) {
	out, err := sm.Decide(sm.StateEvaluated, sm.ActionClose, sm.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, sm.StateClosed, out.To)

	_, err = sm.Decide(sm.StateInProgress, sm.ActionClose, sm.RoleCoordinator)
	assert.True(t, apperror.Is(err, apperror.KindStateConflict))
	assert.Contains(t, err.Error(), "evaluada")

	out, err = sm.Decide(sm.StateClosed, sm.ActionClose, sm.RoleCoordinator)
	require.NoError(t, err)
	assert.True(t, out.AlreadyDone)
}

// TestDecide_WrongRole 测试角色不符返回权限错误
func TestDecide_WrongRole(t *testing.T) {
	_, err := sm.Decide(sm.StatePendingValidation, sm.ActionApprove, sm.RoleStudent)
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	// 角色检查优先于重放
	_, err = sm.Decide(sm.StateClosed, sm.ActionClose, sm.RoleCompany)
	assert.True(t, apperror.Is(err, apperror.KindPermission))
}

// TestDecide_UnknownAction 测试未知动作
func TestDecide_UnknownAction(t *testing.T) {
	_, err := sm.Decide(sm.StatePendingReview, sm.Action("saltar"), sm.RoleCoordinator)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

// TestDecide_ReworkCycle 测试驳回后重新提交的循环
func TestDecide_ReworkCycle(t *testing.T) {
	out, err := sm.Decide(sm.StatePendingValidation, sm.ActionReject, sm.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, sm.StateRejected, out.To)

	out, err = sm.Decide(sm.StateRejected, sm.ActionConfirmStart, sm.RoleCompany)
	require.NoError(t, err)
	assert.Equal(t, sm.StatePendingValidation, out.To)

	out, err = sm.Decide(sm.StateRejected, sm.ActionCorrect, sm.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, sm.StatePendingValidation, out.To)
}

// TestDecide_EvaluationReplay 测试重复提交评估为幂等成功
func TestDecide_EvaluationReplay(t *testing.T) {
	out, err := sm.Decide(sm.StateEvaluated, sm.ActionSubmitEvaluation, sm.RoleCompany)
	require.NoError(t, err)
	assert.True(t, out.AlreadyDone)

	_, err = sm.Decide(sm.StateInProgress, sm.ActionSubmitEvaluation, sm.RoleCompany)
	assert.True(t, apperror.Is(err, apperror.KindStateConflict))
}

// TestDecideManual 测试手动更新状态的限制
func TestDecideManual(t *testing.T) {
	tests := []struct {
		name string
		from sm.State
		to   sm.State
		role sm.Role
		kind apperror.Kind
	}{
		{"forward", sm.StatePendingReview, sm.StateSentToCompany, sm.RoleCoordinator, ""},
		{"rejected to validation", sm.StateRejected, sm.StatePendingValidation, sm.RoleCoordinator, ""},
		{"finish from en_curso", sm.StateInProgress, sm.StateFinished, sm.RoleCoordinator, ""},
		{"backwards", sm.StatePendingValidation, sm.StateSentToCompany, sm.RoleCoordinator, apperror.KindStateConflict},
		{"skip validation gate", sm.StatePendingReview, sm.StateFinished, sm.RoleCoordinator, apperror.KindStateConflict},
		{"approve path", sm.StatePendingValidation, sm.StateInProgress, sm.RoleCoordinator, apperror.KindValidation},
		{"close path", sm.StateEvaluated, sm.StateClosed, sm.RoleCoordinator, apperror.KindValidation},
		{"closed", sm.StateClosed, sm.StateFinished, sm.RoleCoordinator, apperror.KindStateConflict},
		{"student", sm.StatePendingReview, sm.StateSentToCompany, sm.RoleStudent, apperror.KindPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := sm.DecideManual(tt.from, tt.to, tt.role)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.to, out.To)
				return
			}
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
}

// TestCorrectionSatisfied 测试驳回责任方的修正判断
func TestCorrectionSatisfied(t *testing.T) {
	assert.True(t, sm.CorrectionSatisfied(sm.RecipientStudent, true, false))
	assert.False(t, sm.CorrectionSatisfied(sm.RecipientStudent, false, true))
	assert.True(t, sm.CorrectionSatisfied(sm.RecipientCompany, false, true))
	assert.False(t, sm.CorrectionSatisfied(sm.RecipientBoth, false, true))
	assert.True(t, sm.CorrectionSatisfied(sm.RecipientBoth, true, true))
}

// TestParseRecipient 测试解析驳回责任方
func TestParseRecipient(t *testing.T) {
	r, err := sm.ParseRecipient("ambos")
	require.NoError(t, err)
	assert.Equal(t, sm.RecipientBoth, r)

	_, err = sm.ParseRecipient("profesor")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
