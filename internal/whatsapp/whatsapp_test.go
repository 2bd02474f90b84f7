package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMessageData_Text(t *testing.T) {
	tests := []struct {
		name string
		data MessageData
		want string
	}{
		{
			name: "plain conversation wins",
			data: MessageData{Message: &MessageContent{
				Conversation:        "texto direto",
				ExtendedTextMessage: &ExtendedText{Text: "texto estendido"},
				ImageMessage:        &ImageMessage{Caption: "legenda"},
			}},
			want: "texto direto",
		},
		{
			name: "extended text second",
			data: MessageData{Message: &MessageContent{
				ExtendedTextMessage: &ExtendedText{Text: "texto estendido"},
				ImageMessage:        &ImageMessage{Caption: "legenda"},
			}},
			want: "texto estendido",
		},
		{
			name: "image caption last",
			data: MessageData{Message: &MessageContent{
				ImageMessage: &ImageMessage{Caption: "legenda"},
			}},
			want: "legenda",
		},
		{
			name: "no message",
			data: MessageData{},
			want: "",
		},
		{
			name: "empty carriers",
			data: MessageData{Message: &MessageContent{}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.Text())
		})
	}
}

type staticCreds struct {
	creds Credentials
	err   error
}

func (s *staticCreds) EvolutionCredentials(ctx context.Context) (Credentials, error) {
	return s.creds, s.err
}

func TestClient_SendText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(&staticCreds{creds: Credentials{APIURL: srv.URL, APIKey: "evo-key"}}, zap.NewNop())
	err := client.SendText(context.Background(), "inst1", "5511999999999@s.whatsapp.net", "Olá!")
	require.NoError(t, err)

	assert.Equal(t, "/message/sendText/inst1", gotPath)
	assert.Equal(t, "evo-key", gotKey)
	assert.Equal(t, "5511999999999@s.whatsapp.net", gotBody["number"])
	assert.Equal(t, "Olá!", gotBody["text"])
}

func TestClient_SendTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid number"}`))
	}))
	defer srv.Close()

	client := NewClient(&staticCreds{creds: Credentials{APIURL: srv.URL, APIKey: "k"}}, zap.NewNop())
	err := client.SendText(context.Background(), "inst1", "bad", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestClient_SendTextNotConfigured(t *testing.T) {
	client := NewClient(&staticCreds{creds: Credentials{}}, zap.NewNop())
	err := client.SendText(context.Background(), "inst1", "num", "text")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_MarkAsRead(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(&staticCreds{creds: Credentials{APIURL: srv.URL, APIKey: "k"}}, zap.NewNop())
	ok := client.MarkAsRead(context.Background(), "inst1", "msg-1", "jid@s.whatsapp.net")
	assert.True(t, ok)
	assert.Equal(t, "/chat/markMessageAsRead/inst1", gotPath)

	msgs, _ := gotBody["read_messages"].([]interface{})
	require.Len(t, msgs, 1)
	entry, _ := msgs[0].(map[string]interface{})
	assert.Equal(t, "msg-1", entry["id"])
	assert.Equal(t, false, entry["fromMe"])
	assert.Equal(t, "jid@s.whatsapp.net", entry["remoteJid"])
}

func TestClient_MarkAsReadBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(&staticCreds{creds: Credentials{APIURL: srv.URL, APIKey: "k"}}, zap.NewNop())
	assert.False(t, client.MarkAsRead(context.Background(), "inst1", "msg-1", "jid"))

	unconfigured := NewClient(&staticCreds{creds: Credentials{}}, zap.NewNop())
	assert.False(t, unconfigured.MarkAsRead(context.Background(), "inst1", "msg-1", "jid"))
}

func TestClient_TrailingSlashURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(&staticCreds{creds: Credentials{APIURL: srv.URL + "/", APIKey: "k"}}, zap.NewNop())
	require.NoError(t, client.SendText(context.Background(), "inst1", "num", "text"))
	assert.Equal(t, "/message/sendText/inst1", gotPath)
}

func TestWebhookEvent_Decode(t *testing.T) {
	payload := `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999999999@s.whatsapp.net", "fromMe": false, "id": "ABC123"},
			"message": {"conversation": "Qual o horário?"}
		}
	}`
	var event WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	assert.Equal(t, EventMessagesUpsert, event.Event)
	assert.Equal(t, "5511999999999@s.whatsapp.net", event.Data.Key.RemoteJid)
	assert.False(t, event.Data.Key.FromMe)
	assert.Equal(t, "Qual o horário?", event.Data.Text())
}
