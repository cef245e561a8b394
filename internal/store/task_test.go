package store

import "testing"

func TestTaskCRUD(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	p := seedProfile(t, db, "ada")

	task, err := ts.Create(p.ID, "Morning run", "5km minimum")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Title != "Morning run" || task.Description != "5km minimum" || task.OwnerID != p.ID {
		t.Errorf("unexpected task: %+v", task)
	}

	updated, err := ts.Update(task.ID, "Evening run", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Evening run" || updated.Description != "" {
		t.Errorf("unexpected task after update: %+v", updated)
	}

	list, err := ts.ListByOwner(p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1", len(list))
	}

	if err := ts.Delete(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("task still present after delete: %+v", got)
	}
}

func TestTaskListScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	ada := seedProfile(t, db, "ada")
	bob := seedProfile(t, db, "bob")

	if _, err := ts.Create(ada.ID, "Read", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ts.Create(bob.ID, "Write", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := ts.ListByOwner(ada.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Read" {
		t.Errorf("list = %+v, want only ada's task", list)
	}
}

func TestTaskCompletionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	p := seedProfile(t, db, "ada")
	task, _ := ts.Create(p.ID, "Stretch", "")

	photoURL := "https://photos.example.com/1/a.jpg"
	c, err := ts.CreateCompletion(task.ID, p.ID, "2026-03-15", "felt great", &photoURL, task.Title)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if c.CompletedOn != "2026-03-15" || c.Caption != "felt great" {
		t.Errorf("unexpected completion: %+v", c)
	}
	if c.PhotoURL == nil || *c.PhotoURL != photoURL {
		t.Errorf("photo url = %v, want %q", c.PhotoURL, photoURL)
	}
	if c.TaskTitle != "Stretch" {
		t.Errorf("task title = %q, want %q", c.TaskTitle, "Stretch")
	}

	forDay, err := ts.GetCompletionForDay(task.ID, p.ID, "2026-03-15")
	if err != nil {
		t.Fatalf("get for day: %v", err)
	}
	if forDay == nil || forDay.ID != c.ID {
		t.Errorf("get for day = %+v, want id %d", forDay, c.ID)
	}

	if err := ts.DeleteCompletion(c.ID); err != nil {
		t.Fatalf("delete completion: %v", err)
	}
	forDay, err = ts.GetCompletionForDay(task.ID, p.ID, "2026-03-15")
	if err != nil {
		t.Fatalf("get for day after delete: %v", err)
	}
	if forDay != nil {
		t.Errorf("completion still present: %+v", forDay)
	}
}

// The schema holds the one-completion-per-day rule even if the handler check
// races.
func TestTaskCompletionUniquePerDay(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	p := seedProfile(t, db, "ada")
	task, _ := ts.Create(p.ID, "Stretch", "")

	if _, err := ts.CreateCompletion(task.ID, p.ID, "2026-03-15", "", nil, task.Title); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := ts.CreateCompletion(task.ID, p.ID, "2026-03-15", "", nil, task.Title); err == nil {
		t.Error("duplicate same-day completion accepted")
	}
	// A different day is fine.
	if _, err := ts.CreateCompletion(task.ID, p.ID, "2026-03-16", "", nil, task.Title); err != nil {
		t.Errorf("next-day completion rejected: %v", err)
	}
}

func TestTaskCompletionsCascadeWithTask(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	p := seedProfile(t, db, "ada")
	task, _ := ts.Create(p.ID, "Stretch", "")

	if _, err := ts.CreateCompletion(task.ID, p.ID, "2026-03-15", "", nil, task.Title); err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if err := ts.Delete(task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	completions, err := ts.ListCompletionsByOwner(p.ID)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(completions) != 0 {
		t.Errorf("completions survived task delete: %+v", completions)
	}
}

func TestListCompletionsByOwnerSpansTasks(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	p := seedProfile(t, db, "ada")
	run, _ := ts.Create(p.ID, "Run", "")
	read, _ := ts.Create(p.ID, "Read", "")

	if _, err := ts.CreateCompletion(run.ID, p.ID, "2026-03-14", "", nil, run.Title); err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if _, err := ts.CreateCompletion(read.ID, p.ID, "2026-03-15", "", nil, read.Title); err != nil {
		t.Fatalf("create completion: %v", err)
	}

	completions, err := ts.ListCompletionsByOwner(p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(completions) != 2 {
		t.Errorf("len = %d, want 2", len(completions))
	}
}
