package main

import "testing"

func TestCommandTree(t *testing.T) {
	serve := serveCmd()
	if serve.Use != "serve" {
		t.Errorf("serve command Use = %q, want %q", serve.Use, "serve")
	}

	migrate := migrateCmd()
	if migrate.Use != "migrate" {
		t.Errorf("migrate command Use = %q, want %q", migrate.Use, "migrate")
	}

	var names []string
	for _, sub := range migrate.Commands() {
		names = append(names, sub.Use)
	}
	want := map[string]bool{"up": false, "status": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("migrate is missing subcommand %q", n)
		}
	}
}

func TestMigrateUpHasDirFlag(t *testing.T) {
	migrate := migrateCmd()
	for _, sub := range migrate.Commands() {
		if f := sub.Flags().Lookup("dir"); f == nil {
			t.Errorf("migrate %s is missing --dir flag", sub.Use)
		}
	}
}
