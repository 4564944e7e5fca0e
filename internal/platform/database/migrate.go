package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"vouch/migrations"
)

// Migrate applies every embedded *.up.sql file in lexical order. Statements
// are idempotent so running at every startup is safe.
func (p *Pool) Migrate(ctx context.Context) error {
	if p == nil || p.db == nil {
		return nil
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := p.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", file, err)
		}
	}
	return nil
}
