package seeds

import (
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"galangdana_backend/internals/seeds/projects"
)

// RunAllSeeds membaca file seed dari dir (default: internals/seeds).
func RunAllSeeds(db *gorm.DB, dir string) error {
	if dir == "" {
		dir = "internals/seeds"
	}
	//* Projects
	if _, err := projects.SeedProjectsFromJSON(db, filepath.Join(dir, "projects", "data_projects.json"), time.Now()); err != nil {
		return err
	}
	return nil
}
