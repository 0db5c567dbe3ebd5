package store

import (
	"testing"

	"docshare/internal/models"
)

func TestCommentStore_CreateAndList(t *testing.T) {
	db := testDB(t)
	comments := NewCommentStore(db)

	u := testUser(t, db, models.RoleUser)
	doc := testDocument(t, db, u, models.StatusApproved, 0)

	c, err := comments.Create(doc.ID, u.ID, "very useful, thanks")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Content != "very useful, thanks" {
		t.Errorf("content = %q", c.Content)
	}

	list, err := comments.ListByDocument(doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("comments = %d, want 1", len(list))
	}
	if list[0].Username == nil || *list[0].Username != u.Username {
		t.Errorf("comment username = %v, want %q", list[0].Username, u.Username)
	}

	if err := comments.Delete(c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = comments.ListByDocument(doc.ID)
	if len(list) != 0 {
		t.Error("comment still listed after Delete")
	}
}

func TestLikeStore_Toggle(t *testing.T) {
	db := testDB(t)
	likes := NewLikeStore(db)
	docs := NewDocumentStore(db)

	u := testUser(t, db, models.RoleUser)
	doc := testDocument(t, db, u, models.StatusApproved, 0)

	liked, count, err := likes.Toggle(doc.ID, u.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !liked || count != 1 {
		t.Errorf("first toggle = (%v, %d), want (true, 1)", liked, count)
	}
	if has, _ := likes.HasLiked(doc.ID, u.ID); !has {
		t.Error("HasLiked = false after like")
	}

	liked, count, err = likes.Toggle(doc.ID, u.ID)
	if err != nil {
		t.Fatalf("Toggle(again): %v", err)
	}
	if liked || count != 0 {
		t.Errorf("second toggle = (%v, %d), want (false, 0)", liked, count)
	}

	found, _ := docs.FindByID(doc.ID)
	if found.Likes != 0 {
		t.Errorf("document counter = %d, want 0 after unlike", found.Likes)
	}
}

// TestLikeStore_CounterNeverNegative unlikes against a counter that was
// already at zero and checks the clamp holds.
func TestLikeStore_CounterNeverNegative(t *testing.T) {
	db := testDB(t)
	likes := NewLikeStore(db)
	docs := NewDocumentStore(db)

	u := testUser(t, db, models.RoleUser)
	doc := testDocument(t, db, u, models.StatusApproved, 0)

	if _, _, err := likes.Toggle(doc.ID, u.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	// Simulate drift: the counter lost the increment.
	if _, err := db.Exec(`UPDATE documents SET likes = 0 WHERE id = $1`, doc.ID); err != nil {
		t.Fatalf("force drift: %v", err)
	}

	_, count, err := likes.Toggle(doc.ID, u.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if count != 0 {
		t.Errorf("counter = %d, want clamped to 0", count)
	}

	found, _ := docs.FindByID(doc.ID)
	if found.Likes < 0 {
		t.Errorf("counter went negative: %d", found.Likes)
	}
}

func TestLikeStore_ReconcileCounts(t *testing.T) {
	db := testDB(t)
	likes := NewLikeStore(db)
	docs := NewDocumentStore(db)

	u := testUser(t, db, models.RoleUser)
	doc := testDocument(t, db, u, models.StatusApproved, 0)

	if _, _, err := likes.Toggle(doc.ID, u.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := db.Exec(`UPDATE documents SET likes = 42 WHERE id = $1`, doc.ID); err != nil {
		t.Fatalf("force drift: %v", err)
	}

	if err := likes.ReconcileCounts(); err != nil {
		t.Fatalf("ReconcileCounts: %v", err)
	}
	found, _ := docs.FindByID(doc.ID)
	if found.Likes != 1 {
		t.Errorf("counter after reconcile = %d, want 1", found.Likes)
	}
}

func TestReportStore_Lifecycle(t *testing.T) {
	db := testDB(t)
	reports := NewReportStore(db)

	u := testUser(t, db, models.RoleUser)
	doc := testDocument(t, db, u, models.StatusApproved, 0)

	r, err := reports.Create(doc.ID, u.ID, "copyright violation")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != models.ReportPending {
		t.Errorf("new report status = %q, want pending", r.Status)
	}

	pending := models.ReportPending
	list, err := reports.List(&pending)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, got := range list {
		if got.ID == r.ID {
			found = true
			if got.ReporterName == nil || *got.ReporterName != u.Username {
				t.Errorf("reporter name = %v, want %q", got.ReporterName, u.Username)
			}
			if got.DocumentTitle == nil || *got.DocumentTitle != doc.Title {
				t.Errorf("document title = %v, want %q", got.DocumentTitle, doc.Title)
			}
		}
	}
	if !found {
		t.Fatal("report missing from pending list")
	}

	if err := reports.Resolve(r.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	list, _ = reports.List(&pending)
	for _, got := range list {
		if got.ID == r.ID {
			t.Error("resolved report still in pending list")
		}
	}
}
