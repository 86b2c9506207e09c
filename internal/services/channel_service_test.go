package services

import (
	"context"
	"testing"

	"chatgo/internal/models"
	"chatgo/internal/social"
)

func TestListChannels(t *testing.T) {
	ctx := context.Background()

	t.Run("friend without channel gets a synthesized dm entry", func(t *testing.T) {
		alice := &models.User{Username: "alice", FullName: "Alice"}
		bob := &models.User{Username: "bob", FullName: "Bob"}
		users := newFakeUserRepo(alice, bob)
		channels := newFakeChannelRepo(users)
		friendships := newFakeFriendshipRepo()
		friendships.addFriends(alice.ID, bob.ID)

		svc := NewChannelService(channels, &fakeMessageRepo{}, friendships, users)
		views, err := svc.ListChannels(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListChannels() error = %v", err)
		}

		// AI 助手条目 + 推导出的 DM 条目
		if len(views) != 2 {
			t.Fatalf("views = %d entries, want 2", len(views))
		}
		if views[0].ID != models.AIAssistantChannelID {
			t.Errorf("first view = %s, want AI assistant first", views[0].ID)
		}

		dm := views[1]
		if dm.ID != social.DMChannelID(alice.ID, bob.ID) {
			t.Errorf("dm view id = %s, want derived id", dm.ID)
		}
		if dm.Name != "Bob" || !dm.IsFriend || dm.OtherUserID != bob.ID {
			t.Errorf("dm view = %+v", dm)
		}
		if dm.LastMessage == "" || dm.LastMessageTime != 0 {
			t.Errorf("dm placeholder = %q time = %d, want placeholder and zero time", dm.LastMessage, dm.LastMessageTime)
		}
	})

	t.Run("persisted dm suppresses the synthesized entry", func(t *testing.T) {
		alice := &models.User{Username: "alice", FullName: "Alice"}
		bob := &models.User{Username: "bob", FullName: "Bob"}
		users := newFakeUserRepo(alice, bob)
		channels := newFakeChannelRepo(users)
		friendships := newFakeFriendshipRepo()
		friendships.addFriends(alice.ID, bob.ID)
		messages := &fakeMessageRepo{}

		svc := NewChannelService(channels, messages, friendships, users)
		channel, err := svc.GetOrCreateDMChannel(ctx, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("GetOrCreateDMChannel() error = %v", err)
		}
		_ = messages.Create(ctx, &models.Message{ChannelID: channel.ID, SenderID: alice.ID, Content: "hi", Timestamp: 42})

		views, err := svc.ListChannels(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListChannels() error = %v", err)
		}

		dmCount := 0
		for _, v := range views {
			if v.Type == models.DMChannel {
				dmCount++
				if v.ID != channel.ID {
					t.Errorf("dm view id = %s, want persisted channel id %s", v.ID, channel.ID)
				}
				if v.LastMessage != "hi" || v.LastMessageTime != 42 {
					t.Errorf("dm last message = %q@%d, want hi@42", v.LastMessage, v.LastMessageTime)
				}
				if v.Name != "Bob" {
					t.Errorf("dm view name = %q, want counterpart name", v.Name)
				}
			}
		}
		if dmCount != 1 {
			t.Errorf("dm views = %d, want exactly 1 (no duplicate synthesized entry)", dmCount)
		}
	})

	t.Run("group channel keeps its own name and placeholder", func(t *testing.T) {
		alice := &models.User{Username: "alice", FullName: "Alice"}
		users := newFakeUserRepo(alice)
		general := &models.Channel{ID: models.GeneralChannelID, Name: "General", Type: models.GroupChannel}
		channels := newFakeChannelRepo(users, general)
		_ = channels.AddMember(ctx, general.ID, alice.ID)

		svc := NewChannelService(channels, &fakeMessageRepo{}, newFakeFriendshipRepo(), users)
		views, err := svc.ListChannels(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListChannels() error = %v", err)
		}

		var found bool
		for _, v := range views {
			if v.ID == models.GeneralChannelID {
				found = true
				if v.Name != "General" {
					t.Errorf("general name = %q", v.Name)
				}
				if v.LastMessage != placeholderNoMessages {
					t.Errorf("general placeholder = %q", v.LastMessage)
				}
			}
		}
		if !found {
			t.Error("general channel missing from views")
		}
	})

	t.Run("ai assistant is not duplicated for members", func(t *testing.T) {
		alice := &models.User{Username: "alice", FullName: "Alice"}
		users := newFakeUserRepo(alice)
		aiChannel := &models.Channel{ID: models.AIAssistantChannelID, Name: models.AIAssistantName, Type: models.AIChannel}
		channels := newFakeChannelRepo(users, aiChannel)
		_ = channels.AddMember(ctx, aiChannel.ID, alice.ID)

		svc := NewChannelService(channels, &fakeMessageRepo{}, newFakeFriendshipRepo(), users)
		views, err := svc.ListChannels(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListChannels() error = %v", err)
		}

		aiCount := 0
		for _, v := range views {
			if v.Type == models.AIChannel {
				aiCount++
			}
		}
		if aiCount != 1 {
			t.Errorf("ai views = %d, want 1", aiCount)
		}
	})
}

func TestGetOrCreateDMChannel(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{Username: "alice", FullName: "Alice"}
	bob := &models.User{Username: "bob", FullName: "Bob"}
	users := newFakeUserRepo(alice, bob)
	channels := newFakeChannelRepo(users)

	svc := NewChannelService(channels, &fakeMessageRepo{}, newFakeFriendshipRepo(), users)

	first, err := svc.GetOrCreateDMChannel(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDMChannel() error = %v", err)
	}
	if first.ID != social.DMChannelID(alice.ID, bob.ID) {
		t.Errorf("channel id = %s, want derived id", first.ID)
	}
	if first.Type != models.DMChannel {
		t.Errorf("channel type = %s, want dm", first.Type)
	}

	// 从任一侧重复调用都返回同一个频道
	second, err := svc.GetOrCreateDMChannel(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDMChannel() repeat error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeat call channel id = %s, want %s", second.ID, first.ID)
	}
	if len(channels.channels) != 1 {
		t.Errorf("channels created = %d, want 1", len(channels.channels))
	}

	for _, userID := range []string{alice.ID, bob.ID} {
		isMember, _ := channels.IsMember(ctx, first.ID, userID)
		if !isMember {
			t.Errorf("user %s not a member of dm channel", userID)
		}
	}
}
