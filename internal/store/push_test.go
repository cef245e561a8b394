package store

import "testing"

func TestPushSubscribeAndList(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	ada := seedProfile(t, db, "ada")

	sub, err := ps.Subscribe(ada.ID, "https://push.example.com/ep1", "p256dh", "auth", "phone")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.Endpoint != "https://push.example.com/ep1" || sub.DeviceName != "phone" {
		t.Errorf("unexpected subscription: %+v", sub)
	}

	subs, err := ps.ListByProfile(ada.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("len = %d, want 1", len(subs))
	}
}

// Re-subscribing the same endpoint replaces the keys in place rather than
// erroring or duplicating the row.
func TestPushSubscribeUpsertsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	ada := seedProfile(t, db, "ada")

	if _, err := ps.Subscribe(ada.ID, "https://push.example.com/ep1", "old-key", "old-auth", ""); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	sub, err := ps.Subscribe(ada.ID, "https://push.example.com/ep1", "new-key", "new-auth", "laptop")
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if sub.P256dhKey != "new-key" || sub.AuthKey != "new-auth" {
		t.Errorf("keys not replaced: %+v", sub)
	}

	subs, _ := ps.ListByProfile(ada.ID)
	if len(subs) != 1 {
		t.Errorf("len = %d, want 1 after upsert", len(subs))
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	ada := seedProfile(t, db, "ada")

	if _, err := ps.Subscribe(ada.ID, "https://push.example.com/ep1", "k", "a", ""); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example.com/ep1"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ := ps.ListByProfile(ada.ID)
	if len(subs) != 0 {
		t.Errorf("subscription survived delete: %+v", subs)
	}
}
