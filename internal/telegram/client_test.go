package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN", time.Second)
	markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{CallbackButton("Купить", "action_buy")}}}
	require.NoError(t, c.SendMessage(context.Background(), 42, "<b>hi</b>", markup))

	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, float64(42), got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.NotNil(t, got["reply_markup"])
}

func TestClient_GetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req getUpdatesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, int64(7), req.Offset)
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"from":{"id":5,"first_name":"A"},"chat":{"id":5,"type":"private"},"text":"/start"}},
			{"update_id":8,"callback_query":{"id":"cb","from":{"id":5,"first_name":"A"},"data":"action_buy","message":{"message_id":2,"chat":{"id":5,"type":"private"}}}}
		]}`))
	}))
	defer srv.Close()

	updates, err := NewClient(srv.URL, "T", time.Second).GetUpdates(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, "action_buy", updates[1].CallbackQuery.Data)
	assert.Equal(t, int64(2), updates[1].CallbackQuery.Message.MessageID)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name: "api error",
			body: `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`,
			wantErr: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, 403, apiErr.Code)
			},
		},
		{
			name: "not modified",
			body: `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotModified)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL, "T", time.Second).EditMessageText(context.Background(), 1, 2, "x", nil)
			tt.wantErr(t, err)
		})
	}
}

func TestClient_GetChatMemberAndMembership(t *testing.T) {
	statuses := map[int64]string{1: "member", 2: "left", 3: "kicked", 4: "administrator", 5: "restricted"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botT/getChatMember", r.URL.Path)
		var req getChatMemberRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, int64(-100500), req.ChatID)
		status, ok := statuses[req.UserID]
		if !ok {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: user not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"status": status, "user": map[string]interface{}{"id": req.UserID}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "T", time.Second)
	member, err := client.GetChatMember(context.Background(), -100500, 1)
	require.NoError(t, err)
	assert.Equal(t, "member", member.Status)
	assert.Equal(t, int64(1), member.User.ID)

	membership := NewChannelMembership(client, -100500)
	want := map[int64]bool{1: true, 2: false, 3: false, 4: true, 5: true}
	for userID, subscribed := range want {
		got, err := membership.IsSubscribed(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, subscribed, got, "user %d", userID)
	}

	_, err = membership.IsSubscribed(context.Background(), 99)
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}
