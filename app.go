package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/wintoolssuite/regtx/internal/auditlog"
	"github.com/wintoolssuite/regtx/internal/csvexport"
	"github.com/wintoolssuite/regtx/internal/database"
	"github.com/wintoolssuite/regtx/internal/hivecompare"
	"github.com/wintoolssuite/regtx/internal/model"
	"github.com/wintoolssuite/regtx/internal/query"
	"github.com/wintoolssuite/regtx/internal/txlog"
)

// App is the main application struct that Wails binds to the frontend.
// All exported methods become callable from JavaScript.
type App struct {
	ctx   context.Context
	audit *auditlog.Logger

	mu          sync.Mutex
	logPath     string
	records     []*model.TransactionRecord
	parsing     bool
	cancelParse context.CancelFunc

	db       database.Store
	comparer hivecompare.Comparer
}

// NewApp creates a new App instance.
func NewApp() *App {
	return &App{
		comparer: hivecompare.NewSimulated(time.Now().UnixNano()),
	}
}

// startup is called when the app starts. The context is saved
// so we can call runtime methods (dialogs, events, etc.)
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// Audit log lives next to the executable. Failing to open it is not
	// fatal; the nil logger discards everything.
	logDir := "."
	if exe, err := os.Executable(); err == nil {
		logDir = filepath.Dir(exe)
	}
	if l, err := auditlog.Open(filepath.Join(logDir, "RegTx.log")); err == nil {
		a.audit = l
	}
	a.audit.Log("=== RegTx started ===")
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	if a.cancelParse != nil {
		a.cancelParse()
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	a.mu.Unlock()

	a.audit.Log("=== RegTx stopped ===")
	a.audit.Close()
}

// -- File Operations --

// BrowseLogFile opens a file dialog for a registry transaction log and
// returns the selected path ("" if cancelled).
func (a *App) BrowseLogFile() (string, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title:            "Select a Registry Transaction Log",
		DefaultDirectory: `C:\Windows\System32\config`,
		Filters: []runtime.FileFilter{
			{DisplayName: "Registry Log Files (*.LOG*)", Pattern: "*.LOG;*.LOG1;*.LOG2"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// LoadLogFile records the log file to parse after checking it exists.
func (a *App) LoadLogFile(path string) error {
	if path == "" {
		return fmt.Errorf("no log file path given")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("log file does not exist: %s", path)
	}

	a.mu.Lock()
	a.logPath = path
	a.mu.Unlock()

	a.audit.Logf("log file loaded: %s", path)
	return nil
}

// -- Parse Operations --

// ParseProgress is emitted on the "parse:progress" and "save:progress"
// events while a long-running operation is underway.
type ParseProgress struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ParseSummary is emitted on the "parse:done" event when a scan finishes.
type ParseSummary struct {
	Count       int    `json:"count"`
	Rejected    int    `json:"rejected"`
	Cancelled   bool   `json:"cancelled"`
	NoEntries   bool   `json:"noEntries"`
	ShortHeader bool   `json:"shortHeader"`
	HiveName    string `json:"hiveName"`
}

// ParseLog scans the loaded log file on a worker goroutine. Only one
// parse may be in flight at a time; the previous result collection is
// cleared when a new parse starts. Completion is signalled via the
// "parse:done" event, failure via "parse:error".
func (a *App) ParseLog() error {
	a.mu.Lock()
	if a.parsing {
		a.mu.Unlock()
		return fmt.Errorf("a parse is already in progress")
	}
	path := a.logPath
	if path == "" {
		a.mu.Unlock()
		return fmt.Errorf("no log file loaded")
	}
	a.records = nil
	a.parsing = true
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelParse = cancel
	a.mu.Unlock()

	a.audit.Logf("parse started: %s", path)
	runtime.EventsEmit(a.ctx, "parse:progress", ParseProgress{
		Phase: "scanning", Message: "Parsing transaction log...",
	})

	go func() {
		defer func() {
			a.mu.Lock()
			a.parsing = false
			a.cancelParse = nil
			a.mu.Unlock()
			cancel()
		}()

		buf, err := txlog.Load(path)
		if err != nil {
			a.audit.Logf("parse failed: %v", err)
			runtime.EventsEmit(a.ctx, "parse:error", err.Error())
			return
		}
		if buf.ShortHeader {
			a.audit.Log("warning: file too small to contain a complete base block header")
		}

		res := txlog.Scan(ctx, buf)

		a.mu.Lock()
		a.records = res.Records
		a.mu.Unlock()

		switch {
		case res.Cancelled:
			a.audit.Logf("parse cancelled: %d transactions kept", res.Count)
		case res.Count == 0:
			a.audit.Log("parse complete: no transactions found")
		default:
			a.audit.Logf("parse complete: %d transactions found", res.Count)
		}

		runtime.EventsEmit(a.ctx, "parse:done", ParseSummary{
			Count:       res.Count,
			Rejected:    res.Rejected,
			Cancelled:   res.Cancelled,
			NoEntries:   res.Count == 0 && !res.Cancelled,
			ShortHeader: buf.ShortHeader,
			HiveName:    buf.HiveName,
		})
	}()

	return nil
}

// CancelParse requests cooperative cancellation of the running parse.
// Records accepted before the scanner observes the signal are retained.
func (a *App) CancelParse() {
	a.mu.Lock()
	cancel := a.cancelParse
	a.mu.Unlock()

	if cancel != nil {
		a.audit.Log("parse cancellation requested")
		cancel()
	}
}

// -- Record Operations --

// RecordPage is one page of the in-memory scan results.
type RecordPage struct {
	Records    []*model.TransactionRecord `json:"records"`
	TotalCount int                        `json:"totalCount"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"pageSize"`
}

// GetRecords returns a page of the current result collection.
func (a *App) GetRecords(page, pageSize int) *RecordPage {
	if pageSize <= 0 {
		pageSize = 1000
	}
	if page < 1 {
		page = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	total := len(a.records)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &RecordPage{
		Records:    a.records[start:end],
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}
}

// CompareWithHive runs the comparison pass over the current records,
// annotating suspected discrepancies against the live hive. Returns
// the number of flagged records.
func (a *App) CompareWithHive() (int, error) {
	a.mu.Lock()
	records := a.records
	parsing := a.parsing
	a.mu.Unlock()

	if parsing {
		return 0, fmt.Errorf("cannot compare while a parse is in progress")
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no transactions to compare; parse a log file first")
	}

	a.audit.Log("comparison against live hive started")
	modified := a.comparer.Compare(records)
	a.audit.Logf("comparison complete: %d modifications detected", modified)

	return modified, nil
}

// -- Export Operations --

// ExportCSV writes the current records to a CSV file chosen by the user.
func (a *App) ExportCSV() (string, error) {
	a.mu.Lock()
	records := a.records
	a.mu.Unlock()

	if len(records) == 0 {
		return "", fmt.Errorf("no data to export")
	}

	savePath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export Transactions",
		DefaultFilename: "registry_transactions.csv",
		Filters: []runtime.FileFilter{
			{DisplayName: "CSV Files (*.csv)", Pattern: "*.csv"},
		},
	})
	if err != nil {
		return "", err
	}
	if savePath == "" {
		return "", nil // user cancelled
	}

	if err := csvexport.WriteRecords(savePath, records); err != nil {
		a.audit.Logf("CSV export failed: %v", err)
		return "", fmt.Errorf("writing CSV: %w", err)
	}

	a.audit.Logf("CSV export: %s (%d records)", savePath, len(records))
	return fmt.Sprintf("Exported %d transactions to %s", len(records), savePath), nil
}

// -- Case Database Operations --

// SaveToDatabase persists the current records into a new SQLite case file.
func (a *App) SaveToDatabase() (string, error) {
	a.mu.Lock()
	records := a.records
	a.mu.Unlock()

	if len(records) == 0 {
		return "", fmt.Errorf("no data to save")
	}

	dbPath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save Case Database As",
		DefaultFilename: "registry_transactions.db",
		Filters: []runtime.FileFilter{
			{DisplayName: "SQLite Database (*.db)", Pattern: "*.db"},
		},
	})
	if err != nil {
		return "", err
	}
	if dbPath == "" {
		return "", nil
	}

	db, err := database.CreateStore("sqlite", dbPath, database.DefaultIndexFields)
	if err != nil {
		return "", fmt.Errorf("creating database: %w", err)
	}

	n, err := db.InsertRecords(records, func(count int) {
		runtime.EventsEmit(a.ctx, "save:progress", ParseProgress{
			Phase:   "inserting",
			Message: fmt.Sprintf("Saved %d of %d records...", count, len(records)),
			Count:   count,
		})
	})
	if err != nil {
		db.Close()
		return "", fmt.Errorf("inserting records: %w", err)
	}

	if err := db.UpdateMetadata(); err != nil {
		db.Close()
		return "", fmt.Errorf("updating metadata: %w", err)
	}

	a.mu.Lock()
	if a.db != nil {
		a.db.Close()
	}
	a.db = db
	a.mu.Unlock()

	a.audit.Logf("case database saved: %s (%d records)", dbPath, n)
	return fmt.Sprintf("Saved %d transactions to %s", n, dbPath), nil
}

// OpenCaseDatabase opens an existing SQLite case file for querying.
func (a *App) OpenCaseDatabase() (string, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open Case Database",
		Filters: []runtime.FileFilter{
			{DisplayName: "SQLite Database (*.db)", Pattern: "*.db"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}

	db, err := database.OpenStore("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}

	a.mu.Lock()
	if a.db != nil {
		a.db.Close()
	}
	a.db = db
	a.mu.Unlock()

	a.audit.Logf("case database opened: %s", path)
	return path, nil
}

// CloseCaseDatabase closes the current case database.
func (a *App) CloseCaseDatabase() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

// -- Query Operations --

// FilterItem is a single field/operator/value filter from the frontend.
type FilterItem struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// QueryRequest describes a filtered, ordered, paginated record query.
type QueryRequest struct {
	Filters  []FilterItem `json:"filters"`
	Logic    string       `json:"logic"`
	OrderBy  string       `json:"orderBy"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// QueryResponse is one page of stored records plus the total match count.
type QueryResponse struct {
	Records    []*model.TransactionRecord `json:"records"`
	TotalCount int64                      `json:"totalCount"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"pageSize"`
}

func operatorFor(s string) (query.Operator, bool) {
	switch s {
	case "=":
		return query.Equal, true
	case "!=":
		return query.NotEqual, true
	case "LIKE":
		return query.Like, true
	case "NOT LIKE":
		return query.NotLike, true
	case ">=":
		return query.GreaterOrEqual, true
	case "<=":
		return query.LessOrEqual, true
	default:
		return "", false
	}
}

// QueryRecords runs a filtered query against the open case database.
func (a *App) QueryRecords(req QueryRequest) (*QueryResponse, error) {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()

	if db == nil {
		return nil, fmt.Errorf("no case database open")
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	q := query.New(pageSize)
	q.SetDialect(db.Dialect())

	if req.Logic == "OR" {
		q.SetLogic(query.OR)
	}

	for _, f := range req.Filters {
		op, ok := operatorFor(f.Operator)
		if !ok {
			continue
		}
		if p := query.Simple(f.Field, op, f.Value); p != nil {
			q.AddPredicate(p)
		}
	}

	if req.OrderBy != "" {
		if err := q.OrderBy(req.OrderBy); err != nil {
			return nil, err
		}
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	q.SetPage(page)

	sqlStr, args := q.Build()
	records, err := db.ExecuteQuery(sqlStr, args)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}

	countSQL, countArgs := q.BuildCount()
	totalCount, err := db.ExecuteCountQuery(countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	return &QueryResponse{
		Records:    records,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// GetDistinctValues returns distinct values for a given field from the
// open case database, for populating filter dropdowns.
func (a *App) GetDistinctValues(field string) (map[string]int64, error) {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()

	if db == nil {
		return nil, fmt.Errorf("no case database open")
	}
	return db.GetDistinctValues(field)
}

// GetVersion returns the application version string.
func (a *App) GetVersion() string {
	return Version
}
