package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) Inbound {
	t.Helper()
	in, err := ParseInbound([]byte(body))
	require.NoError(t, err)
	return in
}

func TestAliasPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field Field
		want  string
		found bool
	}{
		{"primeiro apelido vence", `{"Message":"A","message":"B","content":"C"}`, FieldMessage, "A", true},
		{"vazio é ignorado", `{"Message":"","message":"B"}`, FieldMessage, "B", true},
		{"content como último recurso", `{"content":"C"}`, FieldMessage, "C", true},
		{"snake case", `{"session_id":"s1"}`, FieldSessionID, "s1", true},
		{"camel antes de snake", `{"session_id":"s2","sessionId":"s1"}`, FieldSessionID, "s1", true},
		{"null é ignorado", `{"sessionId":null,"sessionid":"s3"}`, FieldSessionID, "s3", true},
		{"zero é ignorado", `{"id":0,"messageId":"m1"}`, FieldMessageID, "m1", true},
		{"número vira texto", `{"id":42}`, FieldMessageID, "42", true},
		{"false é ignorado", `{"fileBase64":false,"audioBase64":"QUJD"}`, FieldFileBase64, `"QUJD"`, true},
		{"ausente", `{}`, FieldUsername, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := parse(t, tt.body)
			if tt.field == FieldFileBase64 {
				assert.Equal(t, tt.want, string(in.Raw(tt.field)))
				return
			}
			got, ok := in.String(tt.field)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventDefaultsToSendMessage(t *testing.T) {
	assert.Equal(t, "SEND_MESSAGE", parse(t, `{}`).Event())
	assert.Equal(t, "MESSAGES_UPSERT", parse(t, `{"event":"MESSAGES_UPSERT"}`).Event())
	assert.Equal(t, "CHATS_SET", parse(t, `{"Event":"CHATS_SET","event":"MESSAGES_UPSERT"}`).Event())
}

func TestParseInbound(t *testing.T) {
	in, err := ParseInbound(nil)
	require.NoError(t, err)
	assert.Empty(t, in)

	_, err = ParseInbound([]byte(`[1,2]`))
	assert.Error(t, err)
}
