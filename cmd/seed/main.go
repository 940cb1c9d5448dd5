package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	yamlPath = flag.String("file", "", "Path to the election fixture YAML (required)")
	dsn      = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun   = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
)

// YAML contract:
//
// positions:
//   - title: President
//     description: Leads the student body
//     candidates:
//       - name: Jane Doe
//         department: Computer Science
//         year: 3rd Year
//         manifesto: ...
//         achievements: [Dean's List 2025, Tech Club President]
//         image: https://...

type CandidateYAML struct {
	Name         string   `yaml:"name"`
	Department   string   `yaml:"department"`
	Year         string   `yaml:"year"`
	Manifesto    string   `yaml:"manifesto"`
	Achievements []string `yaml:"achievements"`
	Image        string   `yaml:"image"`
}

type PositionYAML struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Candidates  []CandidateYAML `yaml:"candidates"`
}

type FixtureYAML struct {
	Positions []PositionYAML `yaml:"positions"`
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *yamlPath == "" {
		fatalf("--file is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	fixture, err := loadFixture(*yamlPath)
	if err != nil {
		fatalf("fixture error: %v", err)
	}
	if err := validateFixture(fixture); err != nil {
		fatalf("fixture validation failed: %v", err)
	}

	total := 0
	for _, p := range fixture.Positions {
		total += len(p.Candidates)
	}
	fmt.Printf("Loaded %d positions / %d candidates from %s\n", len(fixture.Positions), total, *yamlPath)

	if *dryRun {
		fmt.Println("Dry run; no writes performed.")
		return
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := seed(ctx, db, fixture); err != nil {
		fatalf("seed failed: %v", err)
	}
	fmt.Println("Seed complete.")
}

func loadFixture(path string) (FixtureYAML, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FixtureYAML{}, err
	}
	var fixture FixtureYAML
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return FixtureYAML{}, err
	}
	return fixture, nil
}

func validateFixture(f FixtureYAML) error {
	if len(f.Positions) == 0 {
		return fmt.Errorf("no positions in fixture")
	}
	seen := map[string]bool{}
	for i, p := range f.Positions {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			return fmt.Errorf("position %d: empty title", i)
		}
		key := strings.ToLower(title)
		if seen[key] {
			return fmt.Errorf("duplicate position title %q", p.Title)
		}
		seen[key] = true
		for j, c := range p.Candidates {
			if strings.TrimSpace(c.Name) == "" {
				return fmt.Errorf("position %q candidate %d: empty name", p.Title, j)
			}
			if len(c.Achievements) > 5 {
				return fmt.Errorf("position %q candidate %q: more than 5 achievements", p.Title, c.Name)
			}
		}
	}
	return nil
}

// seed upserts inside one transaction: positions keyed by title, candidates
// keyed by (position, name). Safe to re-run against a live database.
func seed(ctx context.Context, db *sql.DB, fixture FixtureYAML) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range fixture.Positions {
		var positionID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM election.positions WHERE lower(title) = lower($1)`,
			strings.TrimSpace(p.Title),
		).Scan(&positionID)
		switch {
		case err == sql.ErrNoRows:
			positionID = uuid.NewString()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO election.positions (id, title, description, active, created_at, updated_at)
				VALUES ($1, $2, $3, true, now(), now())`,
				positionID, strings.TrimSpace(p.Title), strings.TrimSpace(p.Description))
			if err != nil {
				return fmt.Errorf("insert position %q: %w", p.Title, err)
			}
			fmt.Printf("+ position %q\n", p.Title)
		case err != nil:
			return fmt.Errorf("lookup position %q: %w", p.Title, err)
		}

		for _, c := range p.Candidates {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO election.candidates
					(id, name, position_id, image, department, year, manifesto, achievements, vote_count, created_at, updated_at)
				SELECT $1, $2, $3, $4, $5, $6, $7, $8, 0, now(), now()
				WHERE NOT EXISTS (
					SELECT 1 FROM election.candidates
					WHERE position_id = $3 AND lower(name) = lower($2)
				)`,
				uuid.NewString(), strings.TrimSpace(c.Name), positionID,
				c.Image, c.Department, c.Year, c.Manifesto, toPgArray(c.Achievements))
			if err != nil {
				return fmt.Errorf("insert candidate %q: %w", c.Name, err)
			}
		}
	}

	return tx.Commit()
}

// toPgArray renders a text[] literal; achievements are plain phrases so the
// quoting only needs to survive commas and quotes.
func toPgArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
