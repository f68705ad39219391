package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/db/models"
)

func TestCreateMessageRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		req  CreateMessageRequest
	}{
		{"sem sessão", CreateMessageRequest{Role: "user", Content: "oi"}},
		{"sem role", CreateMessageRequest{SessionID: "s1", Content: "oi"}},
		{"sem conteúdo", CreateMessageRequest{SessionID: "s1", Role: "user"}},
		{"role inválido", CreateMessageRequest{SessionID: "s1", Role: "system", Content: "oi"}},
		{"tipo inválido", CreateMessageRequest{SessionID: "s1", Role: "user", Content: "oi", ContentType: "video"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToModel()
			assert.Error(t, err)
		})
	}
}

func TestCreateMessageAcceptsSnakeCase(t *testing.T) {
	req := CreateMessageRequest{SessionIDSnake: "s1", Role: "assistant", Content: "oi", ContentTypeSnake: "text"}

	msg, err := req.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, models.RoleAssistant, msg.Role)
	assert.Equal(t, models.ContentText, msg.ContentType)
}

func TestContentTypeInferredFromDataURL(t *testing.T) {
	tests := []struct {
		content string
		want    models.ContentType
		mime    string
	}{
		{"data:image/png;base64,iVBORw0KGgo=", models.ContentImage, "image/png"},
		{"data:audio/ogg;base64,T2dnUw==", models.ContentAudio, "audio/ogg"},
		{"data:application/pdf;base64,JVBERi0=", models.ContentFile, "application/pdf"},
		{"texto comum", models.ContentText, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			req := CreateMessageRequest{SessionID: "s1", Role: "user", Content: tt.content}
			msg, err := req.ToModel()
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.ContentType)
			if tt.mime == "" {
				assert.Nil(t, msg.MimeType)
				return
			}
			require.NotNil(t, msg.MimeType)
			assert.Equal(t, tt.mime, *msg.MimeType)
		})
	}
}

func TestMediaTypesNeedASource(t *testing.T) {
	url := "https://cdn.test/a.png"

	_, err := (&CreateMessageRequest{SessionID: "s1", Role: "user", Content: "foto", ContentType: "image"}).ToModel()
	assert.Error(t, err)

	_, err = (&CreateMessageRequest{SessionID: "s1", Role: "user", Content: "foto", ContentType: "image", ImageURL: &url}).ToModel()
	assert.NoError(t, err)

	_, err = (&CreateMessageRequest{SessionID: "s1", Role: "user", Content: "áudio", ContentType: "audio", AudioURL: &url}).ToModel()
	assert.NoError(t, err)
}

func TestUpdateMessageFields(t *testing.T) {
	_, err := (&UpdateMessageRequest{}).Fields()
	assert.Error(t, err)

	bad := "video"
	_, err = (&UpdateMessageRequest{ID: "m1", ContentType: &bad}).Fields()
	assert.Error(t, err)

	image := "image"
	fields, err := (&UpdateMessageRequest{ID: "m1", ContentType: &image}).Fields()
	require.NoError(t, err)
	require.NotNil(t, fields.ContentType)
	assert.Equal(t, models.ContentImage, *fields.ContentType)
}
