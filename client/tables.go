package client

import (
	"context"
	"errors"
	"sync"

	"github.com/yeremiapane/restaurant-ordering/models"
)

var (
	ErrTableOccupied   = errors.New("table is occupied")
	ErrTableNotFound   = errors.New("table not found")
	ErrSelectionExists = errors.New("a table is already selected")
	ErrNoSelection     = errors.New("no table selected")
)

// TableSelector lets a customer pick one free table and reserve it.
type TableSelector struct {
	client *Client

	mu       sync.Mutex
	tables   []models.Table
	selected *models.Table
}

func NewTableSelector(client *Client) *TableSelector {
	return &TableSelector{client: client}
}

// Refresh reloads the tables. A held selection is kept.
func (s *TableSelector) Refresh(ctx context.Context) ([]models.Table, error) {
	tables, err := s.client.Tables(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
	out := make([]models.Table, len(tables))
	copy(out, tables)
	return out, nil
}

// Select holds tableID. Occupied tables cannot be selected, and a second
// selection is rejected while one is held.
func (s *TableSelector) Select(tableID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected != nil {
		return ErrSelectionExists
	}
	for i := range s.tables {
		if s.tables[i].ID != tableID {
			continue
		}
		if s.tables[i].Status == models.TableOccupied {
			return ErrTableOccupied
		}
		t := s.tables[i]
		s.selected = &t
		return nil
	}
	return ErrTableNotFound
}

func (s *TableSelector) Selected() (models.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.Table{}, false
	}
	return *s.selected, true
}

func (s *TableSelector) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Reserve marks the selected table occupied on the server. If another kiosk
// got there first the selection is dropped and ErrTableOccupied returned.
func (s *TableSelector) Reserve(ctx context.Context) (*models.Table, error) {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	tableID := s.selected.ID
	s.mu.Unlock()

	table, err := s.client.SetTableStatus(ctx, tableID, models.TableOccupied)
	if IsConflict(err) {
		// Taken by another kiosk since the last Refresh.
		s.mu.Lock()
		if s.selected != nil && s.selected.ID == tableID {
			s.selected = nil
		}
		for i := range s.tables {
			if s.tables[i].ID == tableID {
				s.tables[i].Status = models.TableOccupied
			}
		}
		s.mu.Unlock()
		return nil, ErrTableOccupied
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.selected != nil && s.selected.ID == table.ID {
		s.selected = table
	}
	for i := range s.tables {
		if s.tables[i].ID == table.ID {
			s.tables[i] = *table
		}
	}
	s.mu.Unlock()
	return table, nil
}
