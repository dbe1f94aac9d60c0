package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gestaozabele/comercial/internal/crm"
)

// FileStore guarda oportunidades num arquivo JSON local. Cada escrita
// regrava a coleção inteira. O mutex serializa escritas deste processo;
// outros processos continuam sujeitos a last-writer-wins.
type FileStore struct {
	mu   sync.Mutex
	path string
	seed []crm.Oportunidade
}

// New cria o store. O arquivo só é criado no primeiro acesso.
func New(path string, seed []crm.Oportunidade) *FileStore {
	return &FileStore{path: path, seed: seed}
}

// Path devolve o caminho do arquivo.
func (s *FileStore) Path() string {
	return s.path
}

// Load lê a coleção, criando o arquivo com a semente quando ausente.
func (s *FileStore) Load(ctx context.Context) ([]crm.Oportunidade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

// Get busca uma oportunidade pelo id.
func (s *FileStore) Get(ctx context.Context, id string) (*crm.Oportunidade, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, crm.ErrNotFound
}

// UpdateStatus implementa crm.StatusWriter sobre o arquivo.
func (s *FileStore) UpdateStatus(ctx context.Context, id string, status crm.Status, at time.Time) (*crm.Oportunidade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, crm.ErrNotFound
	}
	items[idx].Status = status
	items[idx].DataAtualizacao = at
	if err := s.write(items); err != nil {
		return nil, err
	}
	updated := items[idx]
	return &updated, nil
}

func (s *FileStore) load() ([]crm.Oportunidade, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		items := append([]crm.Oportunidade(nil), s.seed...)
		if err := s.write(items); err != nil {
			return nil, err
		}
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fallback: leitura: %w", err)
	}
	var items []crm.Oportunidade
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("fallback: arquivo corrompido: %w", err)
	}
	return items, nil
}

// write grava num temporário do mesmo diretório e renomeia por cima.
func (s *FileStore) write(items []crm.Oportunidade) error {
	if items == nil {
		items = []crm.Oportunidade{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fallback: diretório: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".oportunidades-*.json")
	if err != nil {
		return fmt.Errorf("fallback: temporário: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("fallback: escrita: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fallback: escrita: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("fallback: rename: %w", err)
	}
	return nil
}
