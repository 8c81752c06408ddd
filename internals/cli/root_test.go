package cli

import (
	"testing"
)

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"seed"},
		{"reconcile", "full"},
		{"reconcile", "incremental"},
		{"reconcile", "expire"},
		{"reconcile", "disbursements"},
		{"reconcile", "projects"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Fatalf("command %v tidak terdaftar: %v", path, err)
		}
	}

	serve, _, _ := root.Find([]string{"serve"})
	for _, name := range []string{"no-scheduler", "migrate"} {
		if serve.Flags().Lookup(name) == nil {
			t.Fatalf("flag --%s hilang", name)
		}
	}
	inc, _, _ := root.Find([]string{"reconcile", "incremental"})
	if inc.Flags().Lookup("hours") == nil {
		t.Fatal("flag --hours hilang")
	}
}
