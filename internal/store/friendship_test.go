package store

import (
	"testing"

	"github.com/duet-app/duet/internal/model"
)

func TestFriendshipCreateStartsRequested(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")

	f, err := fs.Create(ada.ID, bob.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.Status != model.FriendshipRequested {
		t.Errorf("status = %q, want %q", f.Status, model.FriendshipRequested)
	}
}

func TestFriendshipGetBetweenEitherDirection(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")

	created, _ := fs.Create(ada.ID, bob.ID)

	forward, err := fs.GetBetween(ada.ID, bob.ID)
	if err != nil {
		t.Fatalf("get between: %v", err)
	}
	reverse, err := fs.GetBetween(bob.ID, ada.ID)
	if err != nil {
		t.Fatalf("get between reversed: %v", err)
	}
	if forward == nil || reverse == nil || forward.ID != created.ID || reverse.ID != created.ID {
		t.Errorf("forward = %+v, reverse = %+v, want both id %d", forward, reverse, created.ID)
	}
}

func TestFriendshipRejectsSelfAndDuplicates(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")

	if _, err := fs.Create(ada.ID, ada.ID); err == nil {
		t.Error("self-friendship accepted")
	}
	if _, err := fs.Create(ada.ID, bob.ID); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fs.Create(ada.ID, bob.ID); err == nil {
		t.Error("duplicate friendship accepted")
	}
}

func TestFriendshipConfirm(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")
	f, _ := fs.Create(ada.ID, bob.ID)

	// The requester cannot confirm their own request.
	ok, err := fs.Confirm(f.ID, ada.ID)
	if err != nil {
		t.Fatalf("confirm as requester: %v", err)
	}
	if ok {
		t.Error("requester confirmed the request")
	}

	ok, err = fs.Confirm(f.ID, bob.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !ok {
		t.Fatal("addressee could not confirm")
	}

	friends, err := fs.AreFriends(ada.ID, bob.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if !friends {
		t.Error("expected confirmed friendship")
	}
}

func TestAreFriendsRequiresConfirmed(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")
	fs.Create(ada.ID, bob.ID)

	friends, err := fs.AreFriends(ada.ID, bob.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if friends {
		t.Error("pending request counted as friendship")
	}
}

func TestListConfirmedFriendIDs(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")
	eve := seedProfile(t, db, "eve")

	// ada -> bob confirmed; eve -> ada still pending.
	f1, _ := fs.Create(ada.ID, bob.ID)
	fs.Confirm(f1.ID, bob.ID)
	fs.Create(eve.ID, ada.ID)

	ids, err := fs.ListConfirmedFriendIDs(ada.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != bob.ID {
		t.Errorf("ids = %v, want [%d]", ids, bob.ID)
	}
}

func TestFriendshipDelete(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")
	f, _ := fs.Create(ada.ID, bob.ID)

	if err := fs.Delete(f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := fs.GetByID(f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("friendship still present: %+v", got)
	}
}
