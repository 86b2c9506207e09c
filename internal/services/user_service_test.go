package services

import (
	"context"
	"testing"

	"chatgo/internal/models"
	"chatgo/internal/social"
)

func TestSearchUsersRelationships(t *testing.T) {
	ctx := context.Background()
	me := &models.User{Username: "me", FullName: "Me"}
	friend := &models.User{Username: "friend", FullName: "Friend"}
	sentTo := &models.User{Username: "sent", FullName: "Sent To"}
	receivedFrom := &models.User{Username: "received", FullName: "Received From"}
	stranger := &models.User{Username: "stranger", FullName: "Stranger"}
	users := newFakeUserRepo(me, friend, sentTo, receivedFrom, stranger)

	friendships := newFakeFriendshipRepo()
	friendships.addFriends(me.ID, friend.ID)

	requests := &fakeFriendRequestRepo{}
	_ = requests.Create(ctx, &models.FriendRequest{SenderID: me.ID, ReceiverID: sentTo.ID, Status: models.FriendRequestStatusPending})
	_ = requests.Create(ctx, &models.FriendRequest{SenderID: receivedFrom.ID, ReceiverID: me.ID, Status: models.FriendRequestStatusPending})

	svc := NewUserService(users, friendships, requests)
	results, err := svc.SearchUsers(ctx, "any", me.ID)
	if err != nil {
		t.Fatalf("SearchUsers() error = %v", err)
	}

	byID := make(map[string]UserSearchResult, len(results))
	for _, res := range results {
		if res.ID == me.ID {
			t.Error("search results include the current user")
		}
		byID[res.ID] = res
	}

	want := map[string]social.Relationship{
		friend.ID:       social.RelationshipFriend,
		sentTo.ID:       social.RelationshipSent,
		receivedFrom.ID: social.RelationshipReceived,
		stranger.ID:     social.RelationshipNone,
	}
	for id, wantRel := range want {
		res, ok := byID[id]
		if !ok {
			t.Errorf("user %s missing from results", id)
			continue
		}
		if res.Relationship != wantRel {
			t.Errorf("user %s relationship = %s, want %s", res.Username, res.Relationship, wantRel)
		}
		if res.AvatarURL == "" {
			t.Errorf("user %s avatar not defaulted", res.Username)
		}
	}
}

func TestSearchUsersAcceptedRequestIsFriend(t *testing.T) {
	ctx := context.Background()
	me := &models.User{Username: "me", FullName: "Me"}
	other := &models.User{Username: "other", FullName: "Other"}
	users := newFakeUserRepo(me, other)

	// 已接受的请求不再算 SENT，关系由好友表决定
	requests := &fakeFriendRequestRepo{}
	_ = requests.Create(ctx, &models.FriendRequest{SenderID: me.ID, ReceiverID: other.ID, Status: models.FriendRequestStatusAccepted})
	friendships := newFakeFriendshipRepo()
	friendships.addFriends(me.ID, other.ID)

	svc := NewUserService(users, friendships, requests)
	results, err := svc.SearchUsers(ctx, "other", me.ID)
	if err != nil {
		t.Fatalf("SearchUsers() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Relationship != social.RelationshipFriend {
		t.Errorf("relationship = %s, want FRIEND", results[0].Relationship)
	}
}
