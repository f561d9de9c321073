package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
	"github.com/orian/docpad/models"
)

// DuckDBStore keeps versions and annotations in an in-process DuckDB
// database. The database is always opened in in-memory mode, so its contents
// live exactly as long as the process, like MemoryStore.
type DuckDBStore struct {
	mu     sync.Mutex
	db     *sql.DB
	seq    int64
	images *ImageIngester
	now    func() time.Time
}

func NewDuckDBStore(images *ImageIngester) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	// A single connection keeps every statement on the same in-memory catalog.
	db.SetMaxOpenConns(1)

	if images == nil {
		images = NewImageIngester("")
	}
	s := &DuckDBStore{db: db, images: images, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *DuckDBStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS versions (
			id VARCHAR PRIMARY KEY,
			position BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS annotations (
			id VARCHAR PRIMARY KEY,
			version_id VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			seq BIGINT NOT NULL,
			body TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS images (
			id VARCHAR PRIMARY KEY,
			version_id VARCHAR NOT NULL,
			seq BIGINT NOT NULL,
			name VARCHAR,
			format VARCHAR NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			path VARCHAR,
			data BLOB
		);

		CREATE TABLE IF NOT EXISTS files (
			id VARCHAR PRIMARY KEY,
			version_id VARCHAR NOT NULL,
			seq BIGINT NOT NULL,
			name VARCHAR,
			size BIGINT NOT NULL,
			path VARCHAR,
			data BLOB
		);

		-- SetInterpreterInfo keeps at most one row per version.
		CREATE TABLE IF NOT EXISTS interpreter_info (
			version_id VARCHAR NOT NULL,
			interpreter_version VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_annotations_version ON annotations(version_id, kind, seq);
		CREATE INDEX IF NOT EXISTS idx_images_version ON images(version_id, seq);
		CREATE INDEX IF NOT EXISTS idx_files_version ON files(version_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// nextSeq returns a process-wide increasing sequence number. Callers hold s.mu.
func (s *DuckDBStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

// ensureVersion registers id inside tx if it is missing. Callers hold s.mu.
func (s *DuckDBStore) ensureVersion(tx *sql.Tx, id string) error {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM versions WHERE id = ?", id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := tx.Exec(
		"INSERT INTO versions (id, position, created_at) VALUES (?, ?, ?)",
		id, s.nextSeq(), s.now(),
	)
	return err
}

// withTx runs fn in a transaction while holding the store lock.
func (s *DuckDBStore) withTx(fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DuckDBStore) EnsureVersion(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		return s.ensureVersion(tx, id)
	})
}

func (s *DuckDBStore) appendAnnotation(id string, kind models.AnnotationKind, body string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureVersion(tx, id); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT INTO annotations (id, version_id, kind, seq, body) VALUES (?, ?, ?, ?, ?)",
			uuid.New().String(), id, string(kind), s.nextSeq(), body,
		)
		return err
	})
}

func (s *DuckDBStore) AppendLink(id, link string) error {
	return s.appendAnnotation(id, models.KindLink, link)
}

func (s *DuckDBStore) AppendText(id, text string) error {
	return s.appendAnnotation(id, models.KindText, text)
}

func (s *DuckDBStore) AppendCode(id, code string) error {
	return s.appendAnnotation(id, models.KindCode, code)
}

func (s *DuckDBStore) AppendTerminalLog(id, log string) error {
	return s.appendAnnotation(id, models.KindTerminal, log)
}

func (s *DuckDBStore) SetInterpreterInfo(id, version string, createdAt time.Time) error {
	return s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureVersion(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM interpreter_info WHERE version_id = ?", id); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT INTO interpreter_info (version_id, interpreter_version, created_at) VALUES (?, ?, ?)",
			id, version, createdAt,
		)
		return err
	})
}

func (s *DuckDBStore) AppendImage(id string, upload models.ImageUpload) (models.ImageRef, error) {
	ref, err := s.images.Ingest(id, upload)
	if err != nil {
		return models.ImageRef{}, err
	}

	err = s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureVersion(tx, id); err != nil {
			return err
		}
		var data interface{}
		if ref.Data != nil {
			data = ref.Data
		}
		_, err := tx.Exec(
			`INSERT INTO images (id, version_id, seq, name, format, width, height, path, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ref.ID, id, s.nextSeq(), nullString(ref.Name), ref.Format, ref.Width, ref.Height,
			nullString(ref.Path), data,
		)
		return err
	})
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to record image: %w", err)
	}
	return ref, nil
}

func (s *DuckDBStore) AppendFile(id string, upload models.FileUpload) (models.FileRef, error) {
	ref, err := s.images.IngestFile(id, upload)
	if err != nil {
		return models.FileRef{}, err
	}

	err = s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureVersion(tx, id); err != nil {
			return err
		}
		var data interface{}
		if ref.Data != nil {
			data = ref.Data
		}
		_, err := tx.Exec(
			`INSERT INTO files (id, version_id, seq, name, size, path, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ref.ID, id, s.nextSeq(), nullString(ref.Name), ref.Size, nullString(ref.Path), data,
		)
		return err
	})
	if err != nil {
		return models.FileRef{}, fmt.Errorf("failed to record file: %w", err)
	}
	return ref, nil
}

func (s *DuckDBStore) ListVersions() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT id FROM versions ORDER BY position ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *DuckDBStore) Snapshot() (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &models.Snapshot{Versions: []models.Version{}, TakenAt: s.now()}
	index := make(map[string]int)

	rows, err := s.db.Query("SELECT id, created_at FROM versions ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("query versions failed: %w", err)
	}
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan version failed: %w", err)
		}
		index[v.ID] = len(snap.Versions)
		snap.Versions = append(snap.Versions, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadAnnotations(snap, index); err != nil {
		return nil, err
	}
	if err := s.loadFiles(snap, index); err != nil {
		return nil, err
	}
	if err := s.loadImages(snap, index); err != nil {
		return nil, err
	}
	if err := s.loadInterpreterInfo(snap, index); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *DuckDBStore) loadAnnotations(snap *models.Snapshot, index map[string]int) error {
	rows, err := s.db.Query("SELECT version_id, kind, body FROM annotations ORDER BY seq ASC")
	if err != nil {
		return fmt.Errorf("query annotations failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var versionID, kind, body string
		if err := rows.Scan(&versionID, &kind, &body); err != nil {
			return fmt.Errorf("scan annotation failed: %w", err)
		}
		i, ok := index[versionID]
		if !ok {
			continue
		}
		v := &snap.Versions[i]
		switch models.AnnotationKind(kind) {
		case models.KindLink:
			v.Links = append(v.Links, body)
		case models.KindText:
			v.Texts = append(v.Texts, body)
		case models.KindCode:
			v.Codes = append(v.Codes, body)
		case models.KindTerminal:
			v.TerminalLogs = append(v.TerminalLogs, body)
		}
	}
	return rows.Err()
}

func (s *DuckDBStore) loadImages(snap *models.Snapshot, index map[string]int) error {
	rows, err := s.db.Query(`
		SELECT id, version_id, COALESCE(name, ''), format, width, height, COALESCE(path, ''), data
		FROM images
		ORDER BY seq ASC
	`)
	if err != nil {
		return fmt.Errorf("query images failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.ImageRef
		var versionID string
		var data []byte
		if err := rows.Scan(&ref.ID, &versionID, &ref.Name, &ref.Format, &ref.Width, &ref.Height, &ref.Path, &data); err != nil {
			return fmt.Errorf("scan image failed: %w", err)
		}
		if len(data) > 0 {
			ref.Data = append([]byte(nil), data...)
		}
		if i, ok := index[versionID]; ok {
			snap.Versions[i].Images = append(snap.Versions[i].Images, ref)
		}
	}
	return rows.Err()
}

func (s *DuckDBStore) loadFiles(snap *models.Snapshot, index map[string]int) error {
	rows, err := s.db.Query(`
		SELECT id, version_id, COALESCE(name, ''), size, COALESCE(path, ''), data
		FROM files
		ORDER BY seq ASC
	`)
	if err != nil {
		return fmt.Errorf("query files failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.FileRef
		var versionID string
		var data []byte
		if err := rows.Scan(&ref.ID, &versionID, &ref.Name, &ref.Size, &ref.Path, &data); err != nil {
			return fmt.Errorf("scan file failed: %w", err)
		}
		if len(data) > 0 {
			ref.Data = append([]byte(nil), data...)
		}
		if i, ok := index[versionID]; ok {
			snap.Versions[i].Files = append(snap.Versions[i].Files, ref)
		}
	}
	return rows.Err()
}

func (s *DuckDBStore) loadInterpreterInfo(snap *models.Snapshot, index map[string]int) error {
	rows, err := s.db.Query("SELECT version_id, interpreter_version, created_at FROM interpreter_info")
	if err != nil {
		return fmt.Errorf("query interpreter info failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var versionID string
		var info models.InterpreterInfo
		if err := rows.Scan(&versionID, &info.Version, &info.CreatedAt); err != nil {
			return fmt.Errorf("scan interpreter info failed: %w", err)
		}
		if i, ok := index[versionID]; ok {
			snap.Versions[i].Interpreter = &info
		}
	}
	return rows.Err()
}

func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
