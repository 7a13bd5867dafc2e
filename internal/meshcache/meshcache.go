// Package meshcache stores meshed scripts in a SQLite database so that
// re-running an unchanged script skips evaluation and meshing.
package meshcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/solidscript/internal/kernel"
)

// formatVersion is mixed into every key; bump it when meshing output changes.
const formatVersion = "solidscript-mesh-v1"

const schema = `
CREATE TABLE IF NOT EXISTS meshes (
	key        TEXT PRIMARY KEY,
	vertices   BLOB NOT NULL,
	indices    BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening mesh cache %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating mesh cache schema in %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key of a script from its source and any settings
// that change the mesh, such as the kernel name.
func Key(source string, settings ...string) string {
	h := sha256.New()
	h.Write([]byte(formatVersion))
	for _, s := range settings {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the mesh stored under key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (mesh *kernel.Mesh, ok bool, err error) {
	var vertices, indices []byte
	err = c.db.QueryRowContext(ctx, `SELECT vertices, indices FROM meshes WHERE key = ?`, key).Scan(&vertices, &indices)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading mesh %s: %w", key, err)
	}
	mesh, err = decode(vertices, indices)
	if err != nil {
		return nil, false, fmt.Errorf("decoding mesh %s: %w", key, err)
	}
	return mesh, true, nil
}

// Put stores mesh under key, replacing any earlier entry.
func (c *Cache) Put(ctx context.Context, key string, mesh *kernel.Mesh) error {
	vertices, indices := encode(mesh)
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meshes (key, vertices, indices, created_at) VALUES (?, ?, ?, ?)`,
		key, vertices, indices, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing mesh %s: %w", key, err)
	}
	return nil
}

// Len returns the number of cached meshes.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meshes`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func encode(m *kernel.Mesh) (vertices, indices []byte) {
	vertices = make([]byte, 4*len(m.Vertices))
	for i, v := range m.Vertices {
		binary.LittleEndian.PutUint32(vertices[4*i:], math.Float32bits(v))
	}
	indices = make([]byte, 4*len(m.Indices))
	for i, ix := range m.Indices {
		binary.LittleEndian.PutUint32(indices[4*i:], ix)
	}
	return vertices, indices
}

func decode(vertices, indices []byte) (*kernel.Mesh, error) {
	if len(vertices)%(4*kernel.VertexStride) != 0 || len(indices)%12 != 0 {
		return nil, fmt.Errorf("truncated buffers (%d vertex bytes, %d index bytes)", len(vertices), len(indices))
	}
	m := &kernel.Mesh{
		Vertices: make([]float32, len(vertices)/4),
		Indices:  make([]uint32, len(indices)/4),
	}
	for i := range m.Vertices {
		m.Vertices[i] = math.Float32frombits(binary.LittleEndian.Uint32(vertices[4*i:]))
	}
	n := uint32(m.VertexCount())
	for i := range m.Indices {
		ix := binary.LittleEndian.Uint32(indices[4*i:])
		if ix >= n {
			return nil, fmt.Errorf("index %d out of range for %d vertices", ix, n)
		}
		m.Indices[i] = ix
	}
	return m, nil
}
