package aggregate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/duet-app/duet/internal/database"
	"github.com/duet-app/duet/internal/model"
	"github.com/duet-app/duet/internal/store"
)

var loaderToday = time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)

func setupLoader(t *testing.T) (*Loader, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	loader := NewLoader(
		store.NewProfileStore(db),
		store.NewTaskStore(db),
		store.NewPartnerTaskStore(db),
		store.NewFriendshipStore(db),
		store.NewPostStore(db),
	)
	return loader, db
}

func createProfile(t *testing.T, db *sql.DB, username string) *model.Profile {
	t.Helper()
	p, err := store.NewProfileStore(db).Create(username+"@example.com", username, username, "x")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p
}

func TestLoadUnknownProfile(t *testing.T) {
	loader, _ := setupLoader(t)
	if _, err := loader.Load(context.Background(), 999, loaderToday); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoadEmptySnapshot(t *testing.T) {
	loader, db := setupLoader(t)
	ada := createProfile(t, db, "ada")

	snap, err := loader.Load(context.Background(), ada.ID, loaderToday)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Profile.ID != ada.ID {
		t.Errorf("profile id = %d, want %d", snap.Profile.ID, ada.ID)
	}
	if len(snap.Tasks) != 0 || len(snap.PartnerTasks) != 0 || len(snap.Friendships) != 0 || len(snap.Posts) != 0 {
		t.Errorf("expected empty collections, got %+v", snap)
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("generated at not set")
	}
}

func TestLoadProjectsTaskStreaks(t *testing.T) {
	loader, db := setupLoader(t)
	ada := createProfile(t, db, "ada")
	ts := store.NewTaskStore(db)

	task, _ := ts.Create(ada.ID, "Run", "")
	for _, day := range []string{"2026-03-13", "2026-03-14", "2026-03-15"} {
		if _, err := ts.CreateCompletion(task.ID, ada.ID, day, "", nil, task.Title); err != nil {
			t.Fatalf("create completion: %v", err)
		}
	}

	snap, err := loader.Load(context.Background(), ada.ID, loaderToday)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(snap.Tasks))
	}
	view := snap.Tasks[0]
	if view.CurrentStreak != 3 {
		t.Errorf("streak = %d, want 3", view.CurrentStreak)
	}
	if !view.CompletedToday {
		t.Error("expected completed today")
	}
	if view.TotalCompletions != 3 {
		t.Errorf("total = %d, want 3", view.TotalCompletions)
	}
}

func TestLoadProjectsPartnerTasksByPerspective(t *testing.T) {
	loader, db := setupLoader(t)
	ada := createProfile(t, db, "ada")
	bob := createProfile(t, db, "bob")
	pts := store.NewPartnerTaskStore(db)

	task, _ := pts.Create(ada.ID, bob.ID, "Walk", "")
	if ok, err := pts.Resolve(task.ID, bob.ID, model.PartnerStatusAccepted); err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	// Only ada has completed today.
	if _, err := pts.CreateCompletion(task.ID, ada.ID, "2026-03-15", "https://p/a.jpg"); err != nil {
		t.Fatalf("create completion: %v", err)
	}

	adaSnap, err := loader.Load(context.Background(), ada.ID, loaderToday)
	if err != nil {
		t.Fatalf("load ada: %v", err)
	}
	if len(adaSnap.PartnerTasks) != 1 {
		t.Fatalf("partner tasks = %d, want 1", len(adaSnap.PartnerTasks))
	}
	adaView := adaSnap.PartnerTasks[0]
	if !adaView.YouCompletedToday || adaView.PartnerCompletedToday || adaView.CompletedToday {
		t.Errorf("ada's view wrong: %+v", adaView.PartnerStatus)
	}

	bobSnap, err := loader.Load(context.Background(), bob.ID, loaderToday)
	if err != nil {
		t.Fatalf("load bob: %v", err)
	}
	bobView := bobSnap.PartnerTasks[0]
	if bobView.YouCompletedToday || !bobView.PartnerCompletedToday {
		t.Errorf("bob's view wrong: %+v", bobView.PartnerStatus)
	}
}

func TestLoadIncludesFriendFeed(t *testing.T) {
	loader, db := setupLoader(t)
	ada := createProfile(t, db, "ada")
	bob := createProfile(t, db, "bob")
	fs := store.NewFriendshipStore(db)
	ts := store.NewTaskStore(db)

	f, _ := fs.Create(ada.ID, bob.ID)
	fs.Confirm(f.ID, bob.ID)

	bobTask, _ := ts.Create(bob.ID, "Read", "")
	url := "https://p/bob.jpg"
	if _, err := ts.CreateCompletion(bobTask.ID, bob.ID, "2026-03-15", "", &url, bobTask.Title); err != nil {
		t.Fatalf("create completion: %v", err)
	}

	snap, err := loader.Load(context.Background(), ada.ID, loaderToday)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Friendships) != 1 {
		t.Errorf("friendships = %d, want 1", len(snap.Friendships))
	}
	if len(snap.Posts) != 1 || snap.Posts[0].Username != "bob" {
		t.Errorf("posts = %+v, want bob's post", snap.Posts)
	}
}
