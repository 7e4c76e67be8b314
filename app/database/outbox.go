package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"greenschool/app/models"
)

// OutboxDB writes domain events for the external notification and
// reporting collaborators to consume. Emission is best-effort from the
// services' point of view; a failed insert is logged, not fatal to the
// business operation that raised it.
type OutboxDB struct {
	DB *sql.DB
}

// Emit inserts one event row with a JSON payload.
func (d *OutboxDB) Emit(schoolID string, typ models.EventType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %v", err)
	}

	_, err = d.DB.Exec(
		`INSERT INTO domain_events (school_id, type, payload, occurred_at)
		 VALUES ($1, $2, $3, NOW())`,
		schoolID, typ, body)
	if err != nil {
		log.Printf("failed to emit %s event: %v", typ, err)
		return err
	}
	return nil
}
