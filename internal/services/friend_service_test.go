package services

import (
	"context"
	"errors"
	"testing"

	"chatgo/internal/models"
)

// staleReadRequestRepo 让每次待处理检查都读到空结果，模拟两个并发发送
// 在对方提交之前各自完成了检查的交错。
type staleReadRequestRepo struct {
	*fakeFriendRequestRepo
}

func (r *staleReadRequestRepo) FindPendingRequest(context.Context, string, string) (*models.FriendRequest, error) {
	return nil, nil
}

func TestSendFriendRequest(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{Username: "alice", FullName: "Alice"}
	bob := &models.User{Username: "bob", FullName: "Bob"}
	users := newFakeUserRepo(alice, bob)

	t.Run("creates pending request", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		svc := NewFriendService(nil, users, requests, newFakeFriendshipRepo(), nil, kafkaTestCfg())

		if err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("SendFriendRequest() error = %v", err)
		}
		if got := requests.pendingCount(); got != 1 {
			t.Errorf("pending requests = %d, want 1", got)
		}
	})

	t.Run("duplicate send is a silent no-op", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		svc := NewFriendService(nil, users, requests, newFakeFriendshipRepo(), nil, kafkaTestCfg())

		for i := 0; i < 3; i++ {
			if err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); err != nil {
				t.Fatalf("SendFriendRequest() #%d error = %v", i+1, err)
			}
		}
		if got := requests.pendingCount(); got != 1 {
			t.Errorf("pending requests after repeats = %d, want 1", got)
		}
	})

	t.Run("racing duplicate sends collapse at the store", func(t *testing.T) {
		// 两个并发发送都可能在对方插入前读到"无待处理请求"，
		// 此时唯一索引上的 DO NOTHING 必须把它们塌缩为一行
		requests := &fakeFriendRequestRepo{}
		svc := NewFriendService(nil, users, &staleReadRequestRepo{requests}, newFakeFriendshipRepo(), nil, kafkaTestCfg())

		for i := 0; i < 2; i++ {
			if err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); err != nil {
				t.Fatalf("SendFriendRequest() #%d error = %v", i+1, err)
			}
		}
		if got := requests.pendingCount(); got != 1 {
			t.Errorf("pending requests = %d, want 1", got)
		}
	})

	t.Run("reverse pending request does not block sending", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		svc := NewFriendService(nil, users, requests, newFakeFriendshipRepo(), nil, kafkaTestCfg())

		if err := svc.SendFriendRequest(ctx, bob.ID, alice.ID); err != nil {
			t.Fatalf("SendFriendRequest(bob->alice) error = %v", err)
		}
		if err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("SendFriendRequest(alice->bob) error = %v", err)
		}
		if got := requests.pendingCount(); got != 2 {
			t.Errorf("pending requests = %d, want 2 (one per direction)", got)
		}
	})

	t.Run("self request rejected", func(t *testing.T) {
		svc := NewFriendService(nil, users, &fakeFriendRequestRepo{}, newFakeFriendshipRepo(), nil, kafkaTestCfg())
		if err := svc.SendFriendRequest(ctx, alice.ID, alice.ID); !errors.Is(err, ErrFriendRequestSelf) {
			t.Errorf("SendFriendRequest(self) error = %v, want ErrFriendRequestSelf", err)
		}
	})

	t.Run("unknown receiver rejected", func(t *testing.T) {
		svc := NewFriendService(nil, users, &fakeFriendRequestRepo{}, newFakeFriendshipRepo(), nil, kafkaTestCfg())
		if err := svc.SendFriendRequest(ctx, alice.ID, "no-such-user"); !errors.Is(err, ErrRecipientNotFound) {
			t.Errorf("SendFriendRequest(unknown) error = %v, want ErrRecipientNotFound", err)
		}
	})

	t.Run("already friends rejected", func(t *testing.T) {
		friendships := newFakeFriendshipRepo()
		friendships.addFriends(alice.ID, bob.ID)
		svc := NewFriendService(nil, users, &fakeFriendRequestRepo{}, friendships, nil, kafkaTestCfg())
		if err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrAlreadyFriends) {
			t.Errorf("SendFriendRequest(friends) error = %v, want ErrAlreadyFriends", err)
		}
	})
}

func TestAcceptFriendRequest(t *testing.T) {
	ctx := context.Background()

	newPending := func(requests *fakeFriendRequestRepo, sender, receiver string) *models.FriendRequest {
		req := &models.FriendRequest{SenderID: sender, ReceiverID: receiver, Status: models.FriendRequestStatusPending}
		_ = requests.Create(ctx, req)
		return req
	}

	t.Run("accept updates status and creates friendship", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		friendships := newFakeFriendshipRepo()
		req := newPending(requests, "u1", "u2")

		accepted, err := acceptWithRepos(ctx, "u2", req.ID, requests, friendships)
		if err != nil {
			t.Fatalf("acceptWithRepos() error = %v", err)
		}
		if accepted.SenderID != "u1" || accepted.ReceiverID != "u2" {
			t.Errorf("accepted request = %+v", accepted)
		}

		stored, _ := requests.GetRequestByID(ctx, req.ID)
		if stored.Status != models.FriendRequestStatusAccepted {
			t.Errorf("request status = %s, want ACCEPTED", stored.Status)
		}
		areFriends, _ := friendships.AreUsersFriends(ctx, "u1", "u2")
		if !areFriends {
			t.Error("friendship not created after accept")
		}
	})

	t.Run("status write failure propagates", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{updateStatusErr: errors.New("db down")}
		friendships := newFakeFriendshipRepo()
		req := newPending(requests, "u1", "u2")

		if _, err := acceptWithRepos(ctx, "u2", req.ID, requests, friendships); err == nil {
			t.Fatal("acceptWithRepos() error = nil, want error")
		}
		if len(friendships.pairs) != 0 {
			t.Error("friendship created despite status write failure")
		}
	})

	t.Run("friendship write failure propagates", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		friendships := newFakeFriendshipRepo()
		friendships.createErr = errors.New("db down")
		req := newPending(requests, "u1", "u2")

		if _, err := acceptWithRepos(ctx, "u2", req.ID, requests, friendships); err == nil {
			t.Fatal("acceptWithRepos() error = nil, want error")
		}
	})

	t.Run("only receiver may accept", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		req := newPending(requests, "u1", "u2")

		if _, err := acceptWithRepos(ctx, "u1", req.ID, requests, newFakeFriendshipRepo()); !errors.Is(err, ErrNotRecipientOfRequest) {
			t.Errorf("accept by sender error = %v, want ErrNotRecipientOfRequest", err)
		}
		if _, err := acceptWithRepos(ctx, "u3", req.ID, requests, newFakeFriendshipRepo()); !errors.Is(err, ErrNotRecipientOfRequest) {
			t.Errorf("accept by stranger error = %v, want ErrNotRecipientOfRequest", err)
		}
	})

	t.Run("second accept rejected", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		friendships := newFakeFriendshipRepo()
		req := newPending(requests, "u1", "u2")

		if _, err := acceptWithRepos(ctx, "u2", req.ID, requests, friendships); err != nil {
			t.Fatalf("first accept error = %v", err)
		}
		if _, err := acceptWithRepos(ctx, "u2", req.ID, requests, friendships); !errors.Is(err, ErrRequestNotPending) {
			t.Errorf("second accept error = %v, want ErrRequestNotPending", err)
		}
	})

	t.Run("cross requests accepted by both sides yield one friendship", func(t *testing.T) {
		requests := &fakeFriendRequestRepo{}
		friendships := newFakeFriendshipRepo()
		reqAB := newPending(requests, "u1", "u2")
		reqBA := newPending(requests, "u2", "u1")

		if _, err := acceptWithRepos(ctx, "u2", reqAB.ID, requests, friendships); err != nil {
			t.Fatalf("accept u1->u2 error = %v", err)
		}
		if _, err := acceptWithRepos(ctx, "u1", reqBA.ID, requests, friendships); err != nil {
			t.Fatalf("accept u2->u1 error = %v", err)
		}
		if len(friendships.pairs) != 1 {
			t.Errorf("friendship rows = %d, want 1", len(friendships.pairs))
		}
	})

	t.Run("missing request", func(t *testing.T) {
		if _, err := acceptWithRepos(ctx, "u2", "nope", &fakeFriendRequestRepo{}, newFakeFriendshipRepo()); !errors.Is(err, ErrFriendRequestNotFound) {
			t.Errorf("accept missing error = %v, want ErrFriendRequestNotFound", err)
		}
	})
}

func TestListPendingRequests(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{Username: "alice", FullName: "Alice"}
	bob := &models.User{Username: "bob", FullName: "Bob"}
	users := newFakeUserRepo(alice, bob)

	requests := &fakeFriendRequestRepo{}
	_ = requests.Create(ctx, &models.FriendRequest{SenderID: alice.ID, ReceiverID: bob.ID, Status: models.FriendRequestStatusPending})
	// 发送者已注销的悬挂请求应被跳过
	_ = requests.Create(ctx, &models.FriendRequest{SenderID: "gone", ReceiverID: bob.ID, Status: models.FriendRequestStatusPending})

	svc := NewFriendService(nil, users, requests, newFakeFriendshipRepo(), nil, kafkaTestCfg())
	pending, err := svc.ListPendingRequests(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListPendingRequests() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d entries, want 1", len(pending))
	}
	if pending[0].Sender == nil || pending[0].Sender.Username != "alice" {
		t.Errorf("sender info = %+v, want alice", pending[0].Sender)
	}
	if pending[0].Sender.AvatarURL == "" {
		t.Error("sender avatar not defaulted")
	}
}
