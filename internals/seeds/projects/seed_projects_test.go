package projects

import (
	"os"
	"path/filepath"
	"testing"

	"galangdana_backend/internals/features/projects/projects/model"
	"galangdana_backend/internals/testutil"
)

func TestSeedProjectsFromJSON(t *testing.T) {
	db := testutil.NewDB(t)

	n, err := SeedProjectsFromJSON(db, "data_projects.json", testutil.Now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("created = %d, want 3", n)
	}

	var p model.ProjectModel
	if err := db.First(&p, "project_title = ?", "Beasiswa Santri Penghafal Quran").Error; err != nil {
		t.Fatal(err)
	}
	if p.ProjectStatus != model.ProjectStatusActive || !p.ProjectEndDate.Equal(testutil.Now.AddDate(0, 0, 45)) {
		t.Fatalf("project = %+v", p)
	}

	// dijalankan ulang: tidak ada duplikat
	if n, err = SeedProjectsFromJSON(db, "data_projects.json", testutil.Now); err != nil || n != 0 {
		t.Fatalf("rerun = %d, %v", n, err)
	}
}

func TestSeedSkipsInvalidRows(t *testing.T) {
	db := testutil.NewDB(t)
	path := filepath.Join(t.TempDir(), "seed.json")
	body := `[{"title":"","target_amount":1000,"end_in_days":10,"fundraiser_id":"6f3a1c2e-8d4b-4f1a-9c7e-2b5d8e9f0a11"},
	{"title":"Tanpa Target","target_amount":0,"end_in_days":10,"fundraiser_id":"6f3a1c2e-8d4b-4f1a-9c7e-2b5d8e9f0a11"}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := SeedProjectsFromJSON(db, path, testutil.Now)
	if err != nil || n != 0 {
		t.Fatalf("n = %d, err = %v", n, err)
	}

	if _, err := SeedProjectsFromJSON(db, filepath.Join(t.TempDir(), "missing.json"), testutil.Now); err == nil {
		t.Fatal("file hilang harus error")
	}
}
