package integration

import (
	"time"

	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/statemachine"
)

// 转换结果标签
const (
	ResultApplied          = "applied"
	ResultAlreadyProcessed = "already_processed"
	ResultWaiting          = "waiting"
	ResultRejected         = "rejected"
	ResultError            = "error"
)

// TransitionEvent 一次状态转换尝试
type TransitionEvent struct {
	PracticeID string              `json:"practice_id"`
	StudentID  string              `json:"student_id,omitempty"`
	Action     statemachine.Action `json:"action"`
	From       statemachine.State  `json:"from"`
	To         statemachine.State  `json:"to"`
	ActorID    string              `json:"actor_id"`
	ActorRole  statemachine.Role   `json:"actor_role"`
	Result     string              `json:"result"`
	ErrorKind  apperror.Kind       `json:"error_kind,omitempty"`
	At         time.Time           `json:"at"`
}

// Succeeded 转换是否已提交
func (e TransitionEvent) Succeeded() bool {
	return e.Result == ResultApplied || e.Result == ResultAlreadyProcessed || e.Result == ResultWaiting
}

// TransitionObserver 在事务提交后接收转换事件
// 实现不得阻塞
type TransitionObserver interface {
	OnTransition(evt TransitionEvent)
}

// TransitionObserverFunc 函数形式的观察者
type TransitionObserverFunc func(evt TransitionEvent)

func (f TransitionObserverFunc) OnTransition(evt TransitionEvent) {
	f(evt)
}

// resultOf 将错误归类为指标标签
func resultOf(err error) (string, apperror.Kind) {
	if kind := apperror.KindOf(err); kind != "" {
		return ResultRejected, kind
	}
	return ResultError, ""
}
