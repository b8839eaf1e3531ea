// Package migration は監査ログなどのSQLiteスキーマを埋め込みのSQLファイルから構築する。
//
// ファイル名は 000001_description.up.sql の形式とし、バージョン順に適用する。
// 適用したファイルのSHA-256を schema_migrations に残し、適用後に書き換えられた
// ファイルを検出した場合は起動を止める。
package migration

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/sinistra/pkg/logging"
)

const upSuffix = ".up.sql"

// ErrChecksumMismatch は適用済みのマイグレーションファイルが変更されていることを表す。
var ErrChecksumMismatch = errors.New("適用済みのマイグレーションが変更されています")

// step は1つのマイグレーションファイル。
type step struct {
	version  int
	name     string
	sql      string
	checksum string
}

// Run は dir にある未適用のマイグレーションを順に適用する。
func Run(db *sql.DB, fsys fs.FS, dir string) error {
	steps, err := load(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションファイルの読み込みに失敗: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		checksum TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("schema_migrations の作成に失敗: %w", err)
	}

	applied, err := appliedChecksums(db)
	if err != nil {
		return fmt.Errorf("適用済みマイグレーションの取得に失敗: %w", err)
	}

	for _, s := range steps {
		if sum, ok := applied[s.version]; ok {
			if sum != s.checksum {
				return fmt.Errorf("%06d_%s: %w", s.version, s.name, ErrChecksumMismatch)
			}
			continue
		}
		if err := apply(db, s); err != nil {
			return fmt.Errorf("マイグレーション %06d_%s の適用に失敗: %w", s.version, s.name, err)
		}
		logging.Info().Int("version", s.version).Str("name", s.name).Msg("マイグレーションを適用しました")
	}
	return nil
}

// load は dir から up.sql を読み込み、バージョン順に並べる。
// 形式に合わないファイルは無視し、同じバージョンが重複していればエラーにする。
func load(fsys fs.FS, dir string) ([]step, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var steps []step
	seen := make(map[int]string)
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(file, upSuffix) {
			continue
		}
		prefix, name, ok := strings.Cut(strings.TrimSuffix(file, upSuffix), "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("バージョン %d が重複しています: %s, %s", version, other, file)
		}
		seen[version] = file

		content, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(content)
		steps = append(steps, step{
			version:  version,
			name:     name,
			sql:      string(content),
			checksum: hex.EncodeToString(sum[:]),
		})
	}

	slices.SortFunc(steps, func(a, b step) int { return a.version - b.version })
	return steps, nil
}

func appliedChecksums(db *sql.DB) (map[int]string, error) {
	rows, err := db.Query(`SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]string)
	for rows.Next() {
		var (
			version  int
			checksum string
		)
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		applied[version] = checksum
	}
	return applied, rows.Err()
}

// apply はSQLの実行と記録を1つのトランザクションで行う。
func apply(db *sql.DB, s step) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.sql); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)`,
		s.version, s.name, s.checksum,
	); err != nil {
		return fmt.Errorf("適用の記録に失敗: %w", err)
	}
	return tx.Commit()
}
