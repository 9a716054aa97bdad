package db

import (
	"errors"
	"testing"

	"github.com/deemkeen/mammut/domain"
)

func TestCreateAndReadAuthor(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")

	err, byFqid := db.ReadAuthorByFqid(alice.Fqid)
	if err != nil {
		t.Fatalf("ReadAuthorByFqid failed: %v", err)
	}
	if byFqid.Id != alice.Id || byFqid.Username != "alice" {
		t.Errorf("Read back the wrong author: %s", byFqid.ToString())
	}

	err, byName := db.ReadAuthorByUsername("alice")
	if err != nil {
		t.Fatalf("ReadAuthorByUsername failed: %v", err)
	}
	if byName.Id != alice.Id {
		t.Error("Username lookup returned the wrong author")
	}

	err, byToken := db.ReadAuthorByToken(alice.ApiToken)
	if err != nil {
		t.Fatalf("ReadAuthorByToken failed: %v", err)
	}
	if byToken.Id != alice.Id {
		t.Error("Token lookup returned the wrong author")
	}
}

func TestDuplicateUsernameConflicts(t *testing.T) {
	db := setupTestDB(t)
	createTestAuthor(t, db, "alice")

	dup := domain.NewLocalAuthor(testHost, "alice", "Other Alice")
	if err := db.CreateAuthor(dup); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Expected ErrConflict on duplicate username, got %v", err)
	}
}

func TestDuplicateFqidConflicts(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")

	dup := domain.NewLocalAuthor(testHost, "alice2", "")
	dup.Fqid = alice.Fqid
	if err := db.CreateAuthor(dup); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Expected ErrConflict on duplicate fqid, got %v", err)
	}
}

func TestUpdateAuthorProfile(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")

	alice.DisplayName = "Alice A."
	alice.Github = "http://github.com/alice"
	if err := db.UpdateAuthorProfile(alice); err != nil {
		t.Fatalf("UpdateAuthorProfile failed: %v", err)
	}

	err, stored := db.ReadAuthorById(alice.Id)
	if err != nil {
		t.Fatalf("ReadAuthorById failed: %v", err)
	}
	if stored.DisplayName != "Alice A." || stored.Github != "http://github.com/alice" {
		t.Error("Profile fields not updated")
	}
	if stored.Fqid != alice.Fqid {
		t.Error("Fqid must never change")
	}
}

func TestReadAllAuthorsPaging(t *testing.T) {
	db := setupTestDB(t)
	createTestAuthor(t, db, "alice")
	createTestAuthor(t, db, "bob")
	createTestAuthor(t, db, "carol")

	err, firstPage := db.ReadAllAuthors(2, 0)
	if err != nil {
		t.Fatalf("ReadAllAuthors failed: %v", err)
	}
	if len(*firstPage) != 2 {
		t.Errorf("Expected 2 authors on the first page, got %d", len(*firstPage))
	}

	err, count := db.CountAuthors()
	if err != nil {
		t.Fatalf("CountAuthors failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 authors, got %d", count)
	}
}
