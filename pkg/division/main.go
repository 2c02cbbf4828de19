package division

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Effectys/rmrp-army-bot/models"
)

// Loader is the slice of the store the registry needs.
type Loader interface {
	Divisions() ([]models.Division, error)
}

// Registry serves the division table from memory. Divisions change rarely
// (config reseed + Reload), lookups happen on every interaction.
type Registry struct {
	loader Loader

	mu     sync.RWMutex
	all    []models.Division
	byID   map[int]*models.Division
	byAbbr map[string]*models.Division
}

func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader: loader,
		byID:   make(map[int]*models.Division),
		byAbbr: make(map[string]*models.Division),
	}
}

// Reload replaces the cached table from the store.
func (r *Registry) Reload() error {
	divisions, err := r.loader.Divisions()
	if err != nil {
		return fmt.Errorf("load divisions: %w", err)
	}
	byID := make(map[int]*models.Division, len(divisions))
	byAbbr := make(map[string]*models.Division, len(divisions))
	for i := range divisions {
		d := &divisions[i]
		byID[d.ID] = d
		byAbbr[strings.ToUpper(d.Abbreviation)] = d
	}
	r.mu.Lock()
	r.all = divisions
	r.byID = byID
	r.byAbbr = byAbbr
	r.mu.Unlock()
	return nil
}

// Get returns the division with the given id.
func (r *Registry) Get(id int) (*models.Division, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// GetByAbbreviation returns the division with the given abbreviation,
// case-insensitive.
func (r *Registry) GetByAbbreviation(abbr string) (*models.Division, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byAbbr[strings.ToUpper(abbr)]
	return d, ok
}

// All returns the cached division table in id order.
func (r *Registry) All() []models.Division {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.all
}

// Name returns the division name for embeds, or a placeholder.
func (r *Registry) Name(id *int) string {
	if id == nil {
		return "—"
	}
	if d, ok := r.Get(*id); ok {
		return d.Name
	}
	return "—"
}

// Abbreviation returns the division abbreviation, empty when unknown.
func (r *Registry) Abbreviation(id *int) string {
	if id == nil {
		return ""
	}
	if d, ok := r.Get(*id); ok {
		return d.Abbreviation
	}
	return ""
}

// Resolve maps a member's live role ids to a division and position. Used by
// the startup sync to bootstrap records for members enrolled before the bot.
func (r *Registry) Resolve(roleIDs []string) (div *models.Division, pos *models.Position) {
	has := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		has[id] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.all {
		d := &r.all[i]
		if _, ok := has[d.RoleID]; !ok {
			continue
		}
		div = d
		for j := range d.Positions {
			if _, ok := has[d.Positions[j].RoleID]; ok {
				pos = &d.Positions[j]
				break
			}
		}
		return div, pos
	}
	return nil, nil
}
