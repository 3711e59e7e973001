package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/mautops/practica-gin/internal/auth"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func register(t *testing.T, hub *Hub, id, userID string, role statemachine.Role) *Client {
	t.Helper()
	c := NewClient(id, userID, role, hub, nil)
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.HasClient(id) }, time.Second, 5*time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		return nil
	}
}

func applied(studentID string) integration.TransitionEvent {
	return integration.TransitionEvent{
		PracticeID: "p-1",
		StudentID:  studentID,
		Action:     statemachine.ActionApprove,
		From:       statemachine.StatePendingValidation,
		To:         statemachine.StateInProgress,
		Result:     integration.ResultApplied,
		At:         time.Now(),
	}
}

func TestHub_OnTransitionRouting(t *testing.T) {
	hub := startHub(t)
	coord := register(t, hub, "c1", "coord-1", statemachine.RoleCoordinator)
	owner := register(t, hub, "c2", "stu-1", statemachine.RoleStudent)
	other := register(t, hub, "c3", "stu-2", statemachine.RoleStudent)

	hub.OnTransition(applied("stu-1"))

	msg := receive(t, coord)
	require.NotNil(t, msg)
	assert.Equal(t, "practice_transition", msg.Type)
	assert.Equal(t, statemachine.StateInProgress, msg.Event.To)

	require.NotNil(t, receive(t, owner))

	select {
	case <-other.Send:
		t.Fatal("student received another student's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SkipsReplaysAndRejections(t *testing.T) {
	hub := startHub(t)
	coord := register(t, hub, "c1", "coord-1", statemachine.RoleCoordinator)

	evt := applied("stu-1")
	evt.Result = integration.ResultAlreadyProcessed
	hub.OnTransition(evt)
	evt.Result = integration.ResultRejected
	hub.OnTransition(evt)

	select {
	case <-coord.Send:
		t.Fatal("unexpected message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterAndStop(t *testing.T) {
	hub := startHub(t)
	c := register(t, hub, "c1", "coord-1", statemachine.RoleCoordinator)
	register(t, hub, "c2", "stu-1", statemachine.RoleStudent)

	hub.Unregister <- c
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)

	hub.Stop()
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
	hub.OnTransition(applied("stu-1"))
}

func TestWebSocketHandler_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := startHub(t)
	validator := auth.NewSessionValidator(config.AuthConfig{JWTSecret: "ws-secret"})

	router := gin.New()
	router.GET("/ws/practicas", WebSocketHandler(hub, validator, NewUpgrader([]string{"*"})))
	srv := httptest.NewServer(router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/practicas"

	_, resp, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := validator.IssueToken(integration.Actor{ID: "stu-1", Role: statemachine.RoleStudent}, time.Hour)
	require.NoError(t, err)
	conn, _, err := gorillaWS.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.OnTransition(applied("stu-1"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "p-1", msg.Event.PracticeID)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	u := NewUpgrader([]string{"https://practicas.uni.cl"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "https://practicas.uni.cl")
	assert.True(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, u.CheckOrigin(req))
}
