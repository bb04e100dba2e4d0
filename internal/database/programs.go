package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/uosnotice/programrank/internal/program"
)

// idChunk bounds the number of ids bound into a single IN clause
const idChunk = 500

var programColumns = []string{
	"p.id", "p.title", "p.link", "p.content",
	"p.app_start_date", "p.app_end_date", "p.source", "p.created_at",
}

// CreateProgram inserts a program with its categories, departments and
// grades. Empty eligibility sets are stored as their unrestricted sentinels.
func (db *DB) CreateProgram(ctx context.Context, p *program.Program) error {
	p.Normalize()
	if len(p.Categories) == 0 {
		return fmt.Errorf("program %q has no categories", p.Title)
	}
	p.CreatedAt = time.Now().UTC()

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := exec(ctx, tx, sq.Insert("program").
			Columns("title", "link", "content", "app_start_date", "app_end_date", "source", "created_at").
			Values(p.Title, p.Link, p.Content, NullDate(p.AppStart), NullDate(p.AppEnd), string(p.Source), p.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert program: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = id

		return insertRelations(ctx, tx, p)
	})
}

func insertRelations(ctx context.Context, tx *sql.Tx, p *program.Program) error {
	if err := insertStrings(ctx, tx, "program_category", "category", p.ID, p.Categories); err != nil {
		return err
	}
	if err := insertStrings(ctx, tx, "program_department", "department", p.ID, p.Departments); err != nil {
		return err
	}

	b := sq.Insert("program_grade").Options("OR IGNORE").Columns("program_id", "grade")
	for _, g := range p.Grades {
		b = b.Values(p.ID, g)
	}
	if _, err := exec(ctx, tx, b); err != nil {
		return fmt.Errorf("failed to insert grades: %w", err)
	}
	return nil
}

func insertStrings(ctx context.Context, tx *sql.Tx, table, column string, id int64, values []string) error {
	if len(values) == 0 {
		return nil
	}
	b := sq.Insert(table).Options("OR IGNORE").Columns("program_id", column)
	for _, v := range values {
		b = b.Values(id, v)
	}
	if _, err := exec(ctx, tx, b); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// GetProgram retrieves a program by ID
func (db *DB) GetProgram(ctx context.Context, id int64) (*program.Program, error) {
	programs, err := db.selectPrograms(ctx, sq.Select(programColumns...).From("program p").Where(sq.Eq{"p.id": id}))
	if err != nil {
		return nil, err
	}
	if len(programs) == 0 {
		return nil, nil
	}
	return &programs[0], nil
}

// GetProgramByLink retrieves the earliest program stored with the given link
func (db *DB) GetProgramByLink(ctx context.Context, link string) (*program.Program, error) {
	if link == "" {
		return nil, nil
	}
	programs, err := db.selectPrograms(ctx, sq.Select(programColumns...).From("program p").
		Where(sq.Eq{"p.link": link}).OrderBy("p.id").Limit(1))
	if err != nil {
		return nil, err
	}
	if len(programs) == 0 {
		return nil, nil
	}
	return &programs[0], nil
}

// ListPrograms retrieves programs with optional filters
func (db *DB) ListPrograms(ctx context.Context, opts ListOptions) ([]program.Program, error) {
	b := applyFilters(sq.Select(programColumns...).From("program p"), opts)

	switch opts.OrderBy {
	case OrderByDeadline:
		b = b.OrderBy("p.app_end_date IS NULL", "p.app_end_date", "p.id")
	case OrderByRecent:
		b = b.OrderBy("p.created_at DESC", "p.id DESC")
	default:
		b = b.OrderBy("p.id")
	}

	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
		if opts.Offset > 0 {
			b = b.Offset(uint64(opts.Offset))
		}
	}

	return db.selectPrograms(ctx, b)
}

// CountPrograms counts the programs a listing with opts would match, ignoring limit and offset
func (db *DB) CountPrograms(ctx context.Context, opts ListOptions) (int, error) {
	stmt, args, err := applyFilters(sq.Select("COUNT(*)").From("program p"), opts).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func applyFilters(b sq.SelectBuilder, opts ListOptions) sq.SelectBuilder {
	if opts.Department != "" {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM program_department d WHERE d.program_id = p.id AND d.department IN (?, ?))",
			opts.Department, program.Unrestricted,
		))
	}
	if opts.Grade != nil {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM program_grade g WHERE g.program_id = p.id AND g.grade IN (?, ?))",
			*opts.Grade, program.GradeUnrestricted,
		))
	}
	if len(opts.Categories) > 0 {
		in, args, _ := sq.Eq{"c.category": opts.Categories}.ToSql()
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM program_category c WHERE c.program_id = p.id AND "+in+")",
			args...,
		))
	}
	if opts.Source != "" {
		b = b.Where(sq.Eq{"p.source": opts.Source})
	}
	if opts.Query != "" {
		b = b.Where("LOWER(p.title) LIKE LOWER(?)", "%"+opts.Query+"%")
	}
	if !opts.IncludeClosed {
		today := opts.Today
		if today.IsZero() {
			today = time.Now()
		}
		b = b.Where(sq.Or{
			sq.Eq{"p.app_end_date": nil},
			sq.GtOrEq{"p.app_end_date": today.Format(time.DateOnly)},
		})
	}
	return b
}

// selectPrograms runs a program query and attaches each program's relations
func (db *DB) selectPrograms(ctx context.Context, b sq.SelectBuilder) ([]program.Program, error) {
	rows, err := query(ctx, db, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := []program.Program{}
	for rows.Next() {
		var p program.Program
		var start, end sql.NullString
		var source string

		if err := rows.Scan(&p.ID, &p.Title, &p.Link, &p.Content, &start, &end, &source, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.AppStart, err = DatePtr(start); err != nil {
			return nil, err
		}
		if p.AppEnd, err = DatePtr(end); err != nil {
			return nil, err
		}
		p.Source = program.Source(source)
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close() // release the connection before loading relations

	if err := db.loadRelations(ctx, programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// loadRelations fills categories, departments and grades in batches
func (db *DB) loadRelations(ctx context.Context, programs []program.Program) error {
	if len(programs) == 0 {
		return nil
	}

	index := make(map[int64]*program.Program, len(programs))
	ids := make([]int64, len(programs))
	for i := range programs {
		index[programs[i].ID] = &programs[i]
		ids[i] = programs[i].ID
	}

	for chunk := range slices.Chunk(ids, idChunk) {
		err := db.scanPairs(ctx, sq.Select("program_id", "category").From("program_category").
			Where(sq.Eq{"program_id": chunk}).OrderBy("program_id", "category"),
			func(id int64, v string) { index[id].Categories = append(index[id].Categories, v) })
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}

		err = db.scanPairs(ctx, sq.Select("program_id", "department").From("program_department").
			Where(sq.Eq{"program_id": chunk}).OrderBy("program_id", "department"),
			func(id int64, v string) { index[id].Departments = append(index[id].Departments, v) })
		if err != nil {
			return fmt.Errorf("failed to load departments: %w", err)
		}

		rows, err := query(ctx, db, sq.Select("program_id", "grade").From("program_grade").
			Where(sq.Eq{"program_id": chunk}).OrderBy("program_id", "grade"))
		if err != nil {
			return fmt.Errorf("failed to load grades: %w", err)
		}
		for rows.Next() {
			var id int64
			var g int
			if err := rows.Scan(&id, &g); err != nil {
				rows.Close()
				return err
			}
			index[id].Grades = append(index[id].Grades, g)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	for i := range programs {
		slices.SortStableFunc(programs[i].Categories, func(a, b string) int {
			return program.CategoryIndex(a) - program.CategoryIndex(b)
		})
		programs[i].Normalize()
	}
	return nil
}

func (db *DB) scanPairs(ctx context.Context, b sq.SelectBuilder, fn func(int64, string)) error {
	rows, err := query(ctx, db, b)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var v string
		if err := rows.Scan(&id, &v); err != nil {
			return err
		}
		fn(id, v)
	}
	return rows.Err()
}

// SetCategories replaces a program's categories
func (db *DB) SetCategories(ctx context.Context, id int64, categories []string) error {
	if len(categories) == 0 {
		return fmt.Errorf("program %d: categories must not be empty", id)
	}
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := exec(ctx, tx, sq.Delete("program_category").Where(sq.Eq{"program_id": id})); err != nil {
			return err
		}
		return insertStrings(ctx, tx, "program_category", "category", id, categories)
	})
}

// DeletePrograms removes programs and their relations in one transaction
func (db *DB) DeletePrograms(ctx context.Context, ids []int64) (int64, error) {
	var deleted int64
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		n, err := deleteProgramsTx(ctx, tx, ids)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func deleteProgramsTx(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error) {
	var deleted int64
	for chunk := range slices.Chunk(ids, idChunk) {
		res, err := exec(ctx, tx, sq.Delete("program").Where(sq.Eq{"id": chunk}))
		if err != nil {
			return 0, fmt.Errorf("failed to delete programs: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}
	return deleted, nil
}

// GetStats retrieves aggregate statistics as of today
func (db *DB) GetStats(ctx context.Context, today time.Time) (*Stats, error) {
	if today.IsZero() {
		today = time.Now()
	}
	day := today.Format(time.DateOnly)

	stats := &Stats{
		BySource:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	var open, closed, noDeadline sql.NullInt64
	if err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN app_end_date IS NULL OR app_end_date >= ? THEN 1 ELSE 0 END) as open,
			SUM(CASE WHEN app_end_date < ? THEN 1 ELSE 0 END) as closed,
			SUM(CASE WHEN app_end_date IS NULL THEN 1 ELSE 0 END) as no_deadline
		FROM program
	`, day, day).Scan(&stats.TotalPrograms, &open, &closed, &noDeadline); err != nil {
		return nil, err
	}
	stats.OpenPrograms = int(open.Int64)
	stats.ClosedPrograms = int(closed.Int64)
	stats.NoDeadline = int(noDeadline.Int64)

	if err := db.countBy(ctx, `SELECT source, COUNT(*) FROM program GROUP BY source`, stats.BySource); err != nil {
		return nil, err
	}
	if err := db.countBy(ctx, `SELECT category, COUNT(*) FROM program_category GROUP BY category`, stats.ByCategory); err != nil {
		return nil, err
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dedup_run`).Scan(&stats.DedupRuns); err != nil {
		return nil, err
	}

	return stats, nil
}

func (db *DB) countBy(ctx context.Context, q string, into map[string]int) error {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}
