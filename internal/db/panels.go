package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paulmach/orb/encoding/wkt"

	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/panels"
)

const panelsSchema = `CREATE TABLE IF NOT EXISTS solar_panels (
	building_id          VARCHAR NOT NULL,
	panel_index          INTEGER NOT NULL,
	segment_index        INTEGER NOT NULL,
	orientation          VARCHAR,
	yearly_energy_dc_kwh DOUBLE NOT NULL,
	lon                  DOUBLE NOT NULL,
	lat                  DOUBLE NOT NULL,
	fill                 VARCHAR NOT NULL,
	wkt                  VARCHAR NOT NULL
)`

// PanelStore writes panel layouts to the solar_panels table. Geometry is
// stored as WKT; load the spatial extension and use ST_GeomFromText to query
// it spatially.
type PanelStore struct {
	db *sql.DB
}

// NewPanelStore creates the table if needed.
func NewPanelStore(ctx context.Context, db *sql.DB) (*PanelStore, error) {
	if _, err := db.ExecContext(ctx, panelsSchema); err != nil {
		return nil, fmt.Errorf("create solar_panels: %w", err)
	}
	return &PanelStore{db: db}, nil
}

// SavePanels replaces the stored layout of one building.
func (s *PanelStore) SavePanels(ctx context.Context, buildingID string, polys []panels.Polygon) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM solar_panels WHERE building_id = ?", buildingID); err != nil {
		return fmt.Errorf("clear panels: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO solar_panels
		(building_id, panel_index, segment_index, orientation, yearly_energy_dc_kwh, lon, lat, fill, wkt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range polys {
		_, err := stmt.ExecContext(ctx,
			buildingID,
			p.Index,
			p.Panel.SegmentIndex,
			string(p.Panel.Orientation),
			p.Panel.YearlyEnergyDcKwh,
			p.Panel.Center.Longitude,
			p.Panel.Center.Latitude,
			palette.HexString(p.Fill),
			wkt.MarshalString(p.Polygon()),
		)
		if err != nil {
			return fmt.Errorf("insert panel %d: %w", p.Index, err)
		}
	}
	return tx.Commit()
}

// SegmentYield is the total yield of one roof segment.
type SegmentYield struct {
	SegmentIndex      int     `json:"segmentIndex"`
	Panels            int     `json:"panels"`
	YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
}

// YieldBySegment sums the stored panels of a building per roof segment.
func (s *PanelStore) YieldBySegment(ctx context.Context, buildingID string) ([]SegmentYield, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT segment_index, count(*), sum(yearly_energy_dc_kwh)
		FROM solar_panels WHERE building_id = ?
		GROUP BY segment_index ORDER BY segment_index`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SegmentYield{}
	for rows.Next() {
		var y SegmentYield
		if err := rows.Scan(&y.SegmentIndex, &y.Panels, &y.YearlyEnergyDcKwh); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}
