package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/joeblew999/plat-solar/internal/cache"
	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/solar"
)

type storedBuilding struct {
	insights  solar.BuildingInsights
	revision  string
	updatedAt time.Time
}

// BuildingService stores fetched building insights, one JSON file per
// building under dataDir/buildings. Insights are normalized on the way in.
type BuildingService struct {
	dir       string
	bus       *EventBus
	logger    *log.Logger
	buildings map[string]storedBuilding
	mu        sync.RWMutex
}

// NewBuildingService creates a building service and loads what is on disk.
// Files that fail to parse are logged and skipped.
func NewBuildingService(dataDir string, bus *EventBus, logger *log.Logger) *BuildingService {
	if logger == nil {
		logger = log.Default()
	}
	s := &BuildingService{
		dir:       filepath.Join(dataDir, "buildings"),
		bus:       bus,
		logger:    logger,
		buildings: make(map[string]storedBuilding),
	}
	s.loadFromDisk()
	return s
}

// List returns a summary of every stored building, sorted by ID.
func (s *BuildingService) List() []BuildingSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BuildingSummary, 0, len(s.buildings))
	for id, b := range s.buildings {
		sp := b.insights.SolarPotential
		out = append(out, BuildingSummary{
			ID:             id,
			Name:           b.insights.Name,
			Panels:         len(sp.SolarPanels),
			Configs:        len(sp.SolarPanelConfigs),
			ImageryQuality: b.insights.ImageryQuality,
			UpdatedAt:      b.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the insights of one building.
func (s *BuildingService) Get(id string) (solar.BuildingInsights, error) {
	b, err := s.get(id)
	return b.insights, err
}

// Revision returns a content hash of the stored insights. It changes
// whenever the building is replaced.
func (s *BuildingService) Revision(id string) (string, error) {
	b, err := s.get(id)
	return b.revision, err
}

func (s *BuildingService) get(id string) (storedBuilding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buildings[id]
	if !ok {
		return storedBuilding{}, errors.New(errors.ErrCodeNotFound, "building %q not found", id)
	}
	return b, nil
}

// Put normalizes bi and stores it under id. An empty id is derived from the
// resource name, or generated when there is none. A new fetch replaces the
// old insights as a whole.
func (s *BuildingService) Put(id string, bi solar.BuildingInsights) (string, solar.BuildingInsights, error) {
	if id == "" {
		id = generateID(strings.TrimPrefix(bi.Name, "buildings/"))
	}
	if id == "" {
		id = uuid.NewString()
	}
	if err := validateID(id); err != nil {
		return "", solar.BuildingInsights{}, err
	}
	norm, err := solar.Normalize(bi)
	if err != nil {
		return "", solar.BuildingInsights{}, err
	}
	data, err := json.MarshalIndent(norm, "", "  ")
	if err != nil {
		return "", solar.BuildingInsights{}, errors.Wrap(errors.ErrCodeInternal, err, "encode building %q", id)
	}

	s.mu.Lock()
	_, existed := s.buildings[id]
	if err := s.saveToDisk(id, data); err != nil {
		s.mu.Unlock()
		return "", solar.BuildingInsights{}, err
	}
	s.buildings[id] = storedBuilding{insights: norm, revision: cache.Hash(data), updatedAt: time.Now().UTC()}
	s.mu.Unlock()

	action := ActionCreated
	if existed {
		action = ActionUpdated
	}
	s.bus.Publish(Event{Resource: ResourceBuildings, Action: action, ID: id})
	s.logger.Debug("building stored", "id", id, "panels", len(norm.SolarPotential.SolarPanels), "action", action)
	return id, norm, nil
}

// Delete removes a building.
func (s *BuildingService) Delete(id string) error {
	s.mu.Lock()
	if _, exists := s.buildings[id]; !exists {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "building %q not found", id)
	}
	if err := os.Remove(s.file(id)); err != nil && !os.IsNotExist(err) {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrCodeInternal, err, "delete building %q", id)
	}
	delete(s.buildings, id)
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: ResourceBuildings, Action: ActionDeleted, ID: id})
	return nil
}

func (s *BuildingService) file(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// loadFromDisk loads every buildings/*.json file.
func (s *BuildingService) loadFromDisk() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return // directory doesn't exist yet, start empty
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping building", "file", name, "error", err)
			continue
		}
		var bi solar.BuildingInsights
		if err := json.Unmarshal(data, &bi); err != nil {
			s.logger.Warn("skipping building", "file", name, "error", err)
			continue
		}
		norm, err := solar.Normalize(bi)
		if err != nil {
			s.logger.Warn("skipping building", "file", name, "error", err)
			continue
		}
		updated := time.Now().UTC()
		if info, err := entry.Info(); err == nil {
			updated = info.ModTime().UTC()
		}
		s.buildings[id] = storedBuilding{insights: norm, revision: cache.Hash(data), updatedAt: updated}
	}
}

// saveToDisk writes one building atomically.
func (s *BuildingService) saveToDisk(id string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create buildings directory")
	}
	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save building %q", id)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "save building %q", id)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save building %q", id)
	}
	if err := os.Rename(tmp.Name(), s.file(id)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save building %q", id)
	}
	return nil
}

// generateID creates a file-safe ID from a name. Unlike a display name, a
// Place ID is case sensitive, so case is kept.
func generateID(name string) string {
	var result strings.Builder
	for _, r := range strings.ReplaceAll(name, " ", "_") {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// validateID rejects IDs that generateID would change, so an ID can never
// escape its directory.
func validateID(id string) error {
	if id == "" || generateID(id) != id {
		return errors.New(errors.ErrCodeInvalidInput, "invalid id %q: use letters, digits, '_' and '-'", id)
	}
	return nil
}
