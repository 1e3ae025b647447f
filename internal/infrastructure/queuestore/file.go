package queuestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// schemaVersion versión del documento persistido.
const schemaVersion = 1

// FileStore cola durable sobre un documento JSON local.
// Cada mutación reescribe el documento completo: archivo temporal, fsync, rename atómico y
// fsync del directorio antes de retornar.
type FileStore struct {
	*core
	path string
}

// NewFileStore abre (o prepara) la cola en path. El archivo se crea en la primera escritura.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("queuestore: ruta vacía")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("queuestore: crear directorio: %w", err)
	}
	fb := &fileBackend{path: path}
	return &FileStore{core: newCore(fb), path: path}, nil
}

// Path ruta del documento.
func (s *FileStore) Path() string { return s.path }

type document struct {
	Version   int                     `json:"version"`
	Movements []entity.QueuedMovement `json:"movements"`
}

type fileBackend struct {
	path string
}

func (f *fileBackend) load() ([]entity.QueuedMovement, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []entity.QueuedMovement{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: leer %s: %v", domain.ErrQueueCorrupt, f.path, err)
	}
	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrQueueCorrupt, f.path, err)
	}
	return records, nil
}

// decode acepta el documento versionado o un arreglo JSON plano (formato anterior).
func decode(data []byte) ([]entity.QueuedMovement, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []entity.QueuedMovement{}, nil
	}
	var records []entity.QueuedMovement
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
	} else {
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		if doc.Version > schemaVersion {
			return nil, fmt.Errorf("versión de esquema %d no soportada", doc.Version)
		}
		records = doc.Movements
	}
	for i := range records {
		if records[i].ID == "" {
			return nil, fmt.Errorf("registro %d sin id", i)
		}
		if records[i].Status == "" {
			records[i].Status = entity.StatusPending
		}
	}
	if records == nil {
		records = []entity.QueuedMovement{}
	}
	return records, nil
}

func (f *fileBackend) save(records []entity.QueuedMovement) error {
	data, err := json.MarshalIndent(document{Version: schemaVersion, Movements: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("queuestore: serializar: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".queue-*.tmp")
	if err != nil {
		return fmt.Errorf("queuestore: archivo temporal: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("queuestore: escribir: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("queuestore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("queuestore: cerrar: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("queuestore: rename: %w", err)
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("queuestore: abrir directorio: %w", err)
	}
	defer d.Close()
	// Algunos sistemas de archivos no soportan fsync sobre directorios.
	if err := d.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
		return fmt.Errorf("queuestore: fsync directorio: %w", err)
	}
	return nil
}
