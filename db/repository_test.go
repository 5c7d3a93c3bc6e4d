package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a migrated database in a temp directory.
func setupTestDB(t *testing.T) *Database {
	t.Helper()

	database, err := NewDatabaseWithConfig(DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "test.db"),
		MigrationsPath: testMigrationsURL(t),
	})
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database
}

func testGeneration(id string) *Generation {
	return &Generation{
		ID:                id,
		RunID:             "run-1",
		Product:           "mug",
		Style:             "studio",
		Prompt:            "professional coffee mug product photography, studio lighting",
		Seed:              42,
		Steps:             30,
		GuidanceScale:     7.5,
		ConditioningScale: 0.8,
		Width:             1024,
		Height:            1024,
		Filename:          "mockup_mug_studio_20260829-120000.png",
		CreatedAt:         time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndGetByID(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	want := testGeneration("gen-1")
	if err := repo.Insert(want); err != nil {
		t.Fatalf("Insert() = %v", err)
	}

	got, err := repo.GetByID("gen-1")
	if err != nil {
		t.Fatalf("GetByID() = %v", err)
	}
	if got.Product != "mug" || got.Style != "studio" {
		t.Errorf("got product/style %q/%q", got.Product, got.Style)
	}
	if got.Seed != 42 || got.Steps != 30 {
		t.Errorf("got seed/steps %d/%d, want 42/30", got.Seed, got.Steps)
	}
	if got.GuidanceScale != 7.5 || got.ConditioningScale != 0.8 {
		t.Errorf("got scales %v/%v, want 7.5/0.8", got.GuidanceScale, got.ConditioningScale)
	}
	if got.Filename != want.Filename {
		t.Errorf("got filename %q, want %q", got.Filename, want.Filename)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("got created_at %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestCreatedAtRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	// Non-UTC timestamps are normalized on write and read back as the
	// same instant through every query path.
	loc := time.FixedZone("UTC+2", 2*60*60)
	gen := testGeneration("tz-1")
	gen.CreatedAt = time.Date(2026, 8, 29, 14, 30, 0, 0, loc)
	if err := repo.Insert(gen); err != nil {
		t.Fatalf("Insert() = %v", err)
	}

	got, err := repo.GetByID("tz-1")
	if err != nil {
		t.Fatalf("GetByID() = %v", err)
	}
	if !got.CreatedAt.Equal(gen.CreatedAt) {
		t.Errorf("GetByID created_at = %v, want instant %v", got.CreatedAt, gen.CreatedAt)
	}

	recent, err := repo.Recent(1, "")
	if err != nil {
		t.Fatalf("Recent() = %v", err)
	}
	if len(recent) != 1 || !recent[0].CreatedAt.Equal(gen.CreatedAt) {
		t.Errorf("Recent() created_at = %+v, want instant %v", recent, gen.CreatedAt)
	}

	run, err := repo.ByRun(gen.RunID)
	if err != nil {
		t.Fatalf("ByRun() = %v", err)
	}
	if len(run) != 1 || !run[0].CreatedAt.Equal(gen.CreatedAt) {
		t.Errorf("ByRun() created_at = %+v, want instant %v", run, gen.CreatedAt)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	_, err := repo.GetByID("missing")
	if err == nil {
		t.Fatal("GetByID() succeeded for missing record")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error does not wrap sql.ErrNoRows: %v", err)
	}
}

func TestGetByFilename(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	gen := testGeneration("gen-1")
	if err := repo.Insert(gen); err != nil {
		t.Fatalf("Insert() = %v", err)
	}

	got, err := repo.GetByFilename(gen.Filename)
	if err != nil {
		t.Fatalf("GetByFilename() = %v", err)
	}
	if got.ID != "gen-1" {
		t.Errorf("got ID %q, want gen-1", got.ID)
	}
}

func TestInsertValidation(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	if err := repo.Insert(nil); err == nil {
		t.Error("nil generation accepted")
	}
	if err := repo.Insert(&Generation{}); err == nil {
		t.Error("generation without ID accepted")
	}
}

func TestRecentOrderAndFilter(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	rows := []*Generation{
		testGeneration("a"),
		testGeneration("b"),
		testGeneration("c"),
	}
	rows[0].CreatedAt = base
	rows[1].CreatedAt = base.Add(time.Minute)
	rows[2].CreatedAt = base.Add(2 * time.Minute)
	rows[2].Product = "tshirt"

	for _, gen := range rows {
		if err := repo.Insert(gen); err != nil {
			t.Fatalf("Insert(%s) = %v", gen.ID, err)
		}
	}

	recent, err := repo.Recent(10, "")
	if err != nil {
		t.Fatalf("Recent() = %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent() returned %d rows, want 3", len(recent))
	}
	if recent[0].ID != "c" || recent[2].ID != "a" {
		t.Errorf("order = %q..%q, want c..a", recent[0].ID, recent[2].ID)
	}

	mugs, err := repo.Recent(10, "mug")
	if err != nil {
		t.Fatalf("Recent(mug) = %v", err)
	}
	if len(mugs) != 2 {
		t.Errorf("Recent(mug) returned %d rows, want 2", len(mugs))
	}

	limited, err := repo.Recent(1, "")
	if err != nil {
		t.Fatalf("Recent(1) = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "c" {
		t.Errorf("Recent(1) = %v, want single row c", limited)
	}
}

func TestByRun(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"v0", "v1"} {
		gen := testGeneration(id)
		gen.Seed = int64(42 + i)
		gen.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Insert(gen); err != nil {
			t.Fatalf("Insert(%s) = %v", id, err)
		}
	}
	other := testGeneration("other")
	other.RunID = "run-2"
	if err := repo.Insert(other); err != nil {
		t.Fatalf("Insert(other) = %v", err)
	}

	run, err := repo.ByRun("run-1")
	if err != nil {
		t.Fatalf("ByRun() = %v", err)
	}
	if len(run) != 2 {
		t.Fatalf("ByRun() returned %d rows, want 2", len(run))
	}
	if run[0].Seed != 42 || run[1].Seed != 43 {
		t.Errorf("seeds = %d, %d, want 42, 43", run[0].Seed, run[1].Seed)
	}
}

func TestCounts(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	for _, id := range []string{"a", "b"} {
		if err := repo.Insert(testGeneration(id)); err != nil {
			t.Fatalf("Insert(%s) = %v", id, err)
		}
	}
	tshirt := testGeneration("c")
	tshirt.Product = "tshirt"
	if err := repo.Insert(tshirt); err != nil {
		t.Fatalf("Insert(c) = %v", err)
	}

	total, err := repo.Count()
	if err != nil {
		t.Fatalf("Count() = %v", err)
	}
	if total != 3 {
		t.Errorf("Count() = %d, want 3", total)
	}

	byProduct, err := repo.CountByProduct()
	if err != nil {
		t.Fatalf("CountByProduct() = %v", err)
	}
	if byProduct["mug"] != 2 || byProduct["tshirt"] != 1 {
		t.Errorf("CountByProduct() = %v, want mug:2 tshirt:1", byProduct)
	}
}

func TestInsertAsyncThroughWriter(t *testing.T) {
	database := setupTestDB(t)

	repo := NewGenerationRepository(database.DB())
	writer := NewAsyncWriter(repo.CreateAsyncWriteHandler())
	repo = NewGenerationRepositoryWithAsyncWriter(database.DB(), writer)

	writer.Start()
	if !repo.InsertAsync(testGeneration("async-1")) {
		t.Fatal("InsertAsync() = false, want queued")
	}
	writer.Stop() // drains pending writes

	got, err := repo.GetByID("async-1")
	if err != nil {
		t.Fatalf("record not persisted after drain: %v", err)
	}
	if got.Product != "mug" {
		t.Errorf("got product %q, want mug", got.Product)
	}
}

func TestInsertAsyncWithoutWriter(t *testing.T) {
	database := setupTestDB(t)
	repo := NewGenerationRepository(database.DB())

	if repo.InsertAsync(testGeneration("x")) {
		t.Error("InsertAsync() = true with no writer configured")
	}
}
