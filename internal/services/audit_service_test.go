package services

import (
	"testing"

	"budgetify/internal/models"
	"budgetify/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	svc := NewAuditService(db)

	svc.Log(user.ID, "CREATE_CARD", "card", "card-1", "127.0.0.1", map[string]interface{}{"title": "Main", "balance": 1000})
	svc.Log(user.ID, "RUN_POSTINGS", "posting_run", "", "10.0.0.1", nil)

	var entries []models.AuditLog
	if err := db.Where("user_id = ?", user.ID).Order("action ASC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load audit log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Action != "CREATE_CARD" || first.ResourceID != "card-1" {
		t.Errorf("unexpected entry %+v", first)
	}
	if first.Changes["title"] != "Main" || first.Changes["balance"] != float64(1000) {
		t.Errorf("changes not round-tripped: %v", first.Changes)
	}
	if entries[1].Changes != nil {
		t.Errorf("expected no changes, got %v", entries[1].Changes)
	}
}
