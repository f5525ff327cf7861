package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrFolderExists is returned when adding a folder whose path is already
// registered.
var ErrFolderExists = errors.New("folder already registered")

// AddFolder registers a new library root and returns it with its id filled in.
func (c *Catalog) AddFolder(ctx context.Context, path string) (*Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_folder", start, err) }()

	var existing int64
	err = c.db.QueryRowContext(ctx, "SELECT id FROM folders WHERE path = ?", path).Scan(&existing)
	if err == nil {
		return nil, ErrFolderExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder lookup failed: %w", err)
	}

	res, err := c.db.ExecContext(ctx,
		"INSERT INTO folders (path, last_scanned_at) VALUES (?, 0)", path)
	if err != nil {
		return nil, fmt.Errorf("failed to add folder %s: %w", path, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Folder{ID: id, Path: path}, nil
}

// Folders returns all registered library roots ordered by path.
func (c *Catalog) Folders(ctx context.Context) ([]Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_folders", start, err) }()

	rows, err := c.db.QueryContext(ctx,
		"SELECT id, path, last_scanned_at FROM folders ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f, scanErr := scanFolder(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		folders = append(folders, f)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// FolderByID returns one folder, or sql.ErrNoRows if it does not exist.
func (c *Catalog) FolderByID(ctx context.Context, id int64) (*Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("folder_by_id", start, err) }()

	row := c.db.QueryRowContext(ctx,
		"SELECT id, path, last_scanned_at FROM folders WHERE id = ?", id)
	f, err := scanFolder(row)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// RemoveFolder unregisters a library root, removing its songs and any
// entities orphaned by the removal in one transaction.
func (c *Catalog) RemoveFolder(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_folder", start, err) }()

	tx, err := c.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		if _, execErr := tx.Exec("DELETE FROM songs WHERE folder_id = ?", id); execErr != nil {
			return fmt.Errorf("failed to remove songs for folder %d: %w", id, execErr)
		}
		if _, cleanErr := c.CleanOrphans(tx); cleanErr != nil {
			return cleanErr
		}
		res, execErr := tx.Exec("DELETE FROM folders WHERE id = ?", id)
		if execErr != nil {
			return fmt.Errorf("failed to remove folder %d: %w", id, execErr)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	}()

	return c.EndBatch(tx, err)
}

// TouchFolderScanned records a completed scan of the folder, inside the
// folder's reconcile transaction.
func (c *Catalog) TouchFolderScanned(tx *sql.Tx, id int64, at time.Time) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("touch_folder", start, err) }()

	_, err = tx.Exec("UPDATE folders SET last_scanned_at = ? WHERE id = ?", at.Unix(), id)
	return err
}

func scanFolder(r rowScanner) (Folder, error) {
	var f Folder
	var scanned int64
	if err := r.Scan(&f.ID, &f.Path, &scanned); err != nil {
		return Folder{}, err
	}
	if scanned > 0 {
		f.LastScannedAt = time.Unix(scanned, 0)
	}
	return f, nil
}
