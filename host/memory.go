package host

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/LingHeChen/nodescript/value"
)

// ---------------------------------------------------------
// Settings
// ---------------------------------------------------------

// MemorySettings keeps settings in maps
type MemorySettings struct {
	mu    sync.RWMutex
	bools map[string]bool
	ints  map[string]int
}

// NewMemorySettings creates empty settings
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{bools: map[string]bool{}, ints: map[string]int{}}
}

func (s *MemorySettings) Bool(key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.bools[key]
	return v, ok
}

func (s *MemorySettings) SetBool(key string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bools[key] = v
}

func (s *MemorySettings) Int(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.ints[key]
	return v, ok
}

func (s *MemorySettings) SetInt(key string, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints[key] = v
}

// ---------------------------------------------------------
// Store
// ---------------------------------------------------------

// MemoryStore is a Store that lives only as long as the process
type MemoryStore struct {
	mu   sync.RWMutex
	data *value.Object
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: value.NewObject()}
}

func (s *MemoryStore) Get(key string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Get(key)
}

func (s *MemoryStore) Set(key string, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Set(key, v)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Delete(key)
	return nil
}

// Snapshot returns a copy of all saved entries
func (s *MemoryStore) Snapshot() value.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return value.Obj(s.data.Clone())
}

// FileStore is a MemoryStore persisted as one JSON object on disk.
// Every write rewrites the file.
type FileStore struct {
	MemoryStore
	path string
}

// OpenFileStore loads path if it exists, or starts empty
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	s.data = value.NewObject()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open save file: %w", err)
	}

	v, err := value.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("read save file %s: %w", path, err)
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("save file %s: expected an object, got %s", path, v.Kind())
	}
	s.data = obj.Clone()
	return s, nil
}

func (s *FileStore) Set(key string, v value.Value) error {
	s.MemoryStore.Set(key, v)
	return s.flush()
}

func (s *FileStore) Delete(key string) error {
	s.MemoryStore.Delete(key)
	return s.flush()
}

func (s *FileStore) flush() error {
	data, err := s.Snapshot().MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode save data: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write save file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------
// Navigation and progress
// ---------------------------------------------------------

// MemoryNavigator records scene loads
type MemoryNavigator struct {
	mu      sync.Mutex
	history []string
}

func (n *MemoryNavigator) LoadScene(name string) error {
	if name == "" {
		return fmt.Errorf("empty scene name")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, name)
	return nil
}

// Current is the most recently loaded scene
func (n *MemoryNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) == 0 {
		return ""
	}
	return n.history[len(n.history)-1]
}

// History lists every scene loaded so far
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// MemoryProgress tracks completed levels and their ranks
type MemoryProgress struct {
	mu    sync.RWMutex
	ranks map[string]int
}

// NewMemoryProgress creates empty progress
func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{ranks: map[string]int{}}
}

// Complete marks a level as completed with a rank
func (p *MemoryProgress) Complete(level string, rank int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ranks[level] = rank
}

func (p *MemoryProgress) LevelCompleted(level string) bool {
	_, ok := p.Rank(level)
	return ok
}

func (p *MemoryProgress) Rank(level string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.ranks[level]
	return r, ok
}

// ---------------------------------------------------------
// Assets
// ---------------------------------------------------------

// FSAssets reads assets from a file system
type FSAssets struct {
	FS fs.FS
}

// DirAssets serves assets from a directory on disk
func DirAssets(root string) FSAssets {
	return FSAssets{FS: os.DirFS(root)}
}

func (a FSAssets) ReadAsset(p string) ([]byte, error) {
	clean := path.Clean(strings.TrimPrefix(p, "/"))
	return fs.ReadFile(a.FS, clean)
}

// ---------------------------------------------------------
// Text lookups
// ---------------------------------------------------------

// MapLocalizer is a Localizer over a fixed table
type MapLocalizer map[string]string

func (m MapLocalizer) Localize(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// MapTokens is a Tokens source over a fixed table
type MapTokens map[string]string

func (m MapTokens) Token(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// NewRandom returns a seeded random source
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ---------------------------------------------------------
// Notification
// ---------------------------------------------------------

// LogNotifier writes notifications to a slog logger
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(message string, severity Severity) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), severity.Level(), message, slog.String("channel", "notify"))
}

// ---------------------------------------------------------
// Assembled host
// ---------------------------------------------------------

// NewMemory builds a Host wired with in-memory collaborators. Assets and
// Launcher are left nil; set them when the application has them.
func NewMemory(logger *slog.Logger) *Host {
	return &Host{
		Version:   "v0.0.0",
		Settings:  NewMemorySettings(),
		Navigator: &MemoryNavigator{},
		Store:     NewMemoryStore(),
		Progress:  NewMemoryProgress(),
		Random:    NewRandom(1),
		Notifier:  LogNotifier{Logger: logger},
		Scheduler: NewManualScheduler(),
		Localizer: MapLocalizer{},
		Tokens:    MapTokens{},
		Directory: NewWorld(),
	}
}
