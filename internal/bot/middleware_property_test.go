// Property-based tests for the whitelist middleware.
package bot

import (
	"testing"

	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"red-or-black-bot/internal/config"
)

// TestWhitelistEnforcementProperty checks that a group chat is served if and
// only if its ID is whitelisted.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(1, 10).Draw(t, "numChats")
		chatIDs := make([]int64, numChats)
		for i := 0; i < numChats; i++ {
			// Group chat IDs are negative
			chatIDs[i] = -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")
		}

		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{
				Chats: chatIDs,
			},
		}

		var testChatID int64
		if rapid.Bool().Draw(t, "known") {
			testChatID = chatIDs[rapid.IntRange(0, numChats-1).Draw(t, "chatIndex")]
		} else {
			testChatID = -rapid.Int64Range(1, 1000000000).Draw(t, "testChatID")
		}

		expected := false
		for _, id := range chatIDs {
			if id == testChatID {
				expected = true
				break
			}
		}

		chat := &tele.Chat{ID: testChatID, Type: tele.ChatGroup}
		sender := &tele.User{ID: rapid.Int64Range(1, 1000000000).Draw(t, "userID")}
		got := chatAllowed(cfg, newPrivateUsers(), chat, sender)

		if got != expected {
			t.Fatalf("Whitelist check mismatch: chatID=%d, whitelistedChats=%v, expected=%v, got=%v",
				testChatID, chatIDs, expected, got)
		}
	})
}

// TestEmptyWhitelistAllowsAllChatsProperty checks that an empty whitelist
// serves every chat, private or group.
func TestEmptyWhitelistAllowsAllChatsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &config.Config{}

		chatType := rapid.SampledFrom([]tele.ChatType{tele.ChatPrivate, tele.ChatGroup, tele.ChatSuperGroup}).Draw(t, "chatType")
		chat := &tele.Chat{ID: rapid.Int64().Draw(t, "chatID"), Type: chatType}
		sender := &tele.User{ID: rapid.Int64Range(1, 1000000000).Draw(t, "userID")}

		if !chatAllowed(cfg, newPrivateUsers(), chat, sender) {
			t.Fatalf("With empty whitelist, %s chat %d should be allowed", chatType, chat.ID)
		}
	})
}

// TestPrivateChatUnlockedByGroupProperty checks that a private chat is served
// only after the user has been seen in a whitelisted group.
func TestPrivateChatUnlockedByGroupProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groupID := -rapid.Int64Range(1, 1000000000).Draw(t, "groupID")
		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: []int64{groupID}}}
		cache := newPrivateUsers()
		sender := &tele.User{ID: userID}
		private := &tele.Chat{ID: userID, Type: tele.ChatPrivate}

		if chatAllowed(cfg, cache, private, sender) {
			t.Fatalf("User %d should not reach the bot privately before playing in a group", userID)
		}

		if !chatAllowed(cfg, cache, &tele.Chat{ID: groupID, Type: tele.ChatGroup}, sender) {
			t.Fatalf("Whitelisted group %d should be allowed", groupID)
		}

		if !chatAllowed(cfg, cache, private, sender) {
			t.Fatalf("User %d should be allowed privately after playing in a whitelisted group", userID)
		}
	})
}
