package mocks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateBuilder_CommandMessage(t *testing.T) {
	t.Parallel()

	update := CommandUpdate(12345, 67890, "/add 4.50 Coffee @ Cafe")

	require.NotNil(t, update.Message)
	require.Nil(t, update.CallbackQuery)
	require.Equal(t, int64(12345), update.Message.Chat.ID)
	require.Equal(t, "private", string(update.Message.Chat.Type))
	require.Equal(t, int64(67890), update.Message.From.ID)
	require.Equal(t, "/add 4.50 Coffee @ Cafe", update.Message.Text)
}

func TestUpdateBuilder_SenderOverride(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func() *UpdateBuilder
		from  func(b *UpdateBuilder) (int64, string, string)
	}{
		{
			name:  "message sender",
			build: func() *UpdateBuilder { return NewUpdateBuilder().WithMessage(1, 2, "/start") },
			from: func(b *UpdateBuilder) (int64, string, string) {
				u := b.Build().Message.From
				return u.ID, u.Username, u.LastName
			},
		},
		{
			name:  "callback sender",
			build: func() *UpdateBuilder { return NewUpdateBuilder().WithCallbackQuery("cb", 1, 2, 3, "month:May 2024") },
			from: func(b *UpdateBuilder) (int64, string, string) {
				u := b.Build().CallbackQuery.From
				return u.ID, u.Username, u.LastName
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := tc.build().WithFrom(100, "ana", "Ana", "Lee")
			id, username, lastName := tc.from(b)
			require.Equal(t, int64(100), id)
			require.Equal(t, "ana", username)
			require.Equal(t, "Lee", lastName)
		})
	}
}

func TestCallbackQueryUpdate_ListButtons(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"month:March 2024", "month:", "expense:5b0d7c1e-0000-4000-8000-000000000001"} {
		update := CallbackQueryUpdate(100, 200, 50, data)

		require.Nil(t, update.Message)
		require.Equal(t, "callback-query-id", update.CallbackQuery.ID)
		require.Equal(t, data, update.CallbackQuery.Data)

		msg := update.CallbackQuery.Message.Message
		require.NotNil(t, msg, "list callbacks edit the message they came from")
		require.Equal(t, 50, msg.ID)
		require.Equal(t, int64(100), msg.Chat.ID)
	}
}

func TestUpdateBuilder_WithMessageID(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithMessage(1, 2, "/watch").WithMessageID(77).Build()
	require.Equal(t, 77, update.Message.ID)

	onCallback := NewUpdateBuilder().WithCallbackQuery("cb", 1, 2, 3, "month:May 2024").WithMessageID(77).Build()
	require.Nil(t, onCallback.Message)
	require.Equal(t, 3, onCallback.CallbackQuery.Message.Message.ID)
}

func TestUpdateBuilder_WithEditedMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithEditedMessage(100, 200, "/add 5 Tea @ Home").Build()

	require.Nil(t, update.Message)
	require.Equal(t, int64(200), update.EditedMessage.From.ID)
	require.Equal(t, "/add 5 Tea @ Home", update.EditedMessage.Text)
}
