package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mcdev12/pitchside/go/internal/dbconfig"
)

// seedFile mirrors the JSON snapshot layout.
type seedFile struct {
	Teams []struct {
		ID        string   `json:"id"`
		SportID   string   `json:"sport_id"`
		Name      string   `json:"name"`
		Code      string   `json:"code"`
		City      string   `json:"city"`
		CaptainID string   `json:"captain_id"`
		HomeLat   *float64 `json:"home_lat"`
		HomeLng   *float64 `json:"home_lng"`
	} `json:"teams"`
	Venues []struct {
		ID       string   `json:"id"`
		VendorID string   `json:"vendor_id"`
		Name     string   `json:"name"`
		Address  string   `json:"address"`
		Lat      *float64 `json:"lat"`
		Lng      *float64 `json:"lng"`
	} `json:"venues"`
	Slots []struct {
		ID                string `json:"id"`
		TeamID            string `json:"team_id"`
		VenueID           string `json:"venue_id"`
		DayOfWeek         string `json:"day_of_week"`
		StartTime         int    `json:"start_time"`
		EndTime           int    `json:"end_time"`
		MaxMatchesPerWeek int    `json:"max_matches_per_week"`
	} `json:"slots"`
}

func main() {
	path := "go/internal/assets/seed.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var inserted, skipped, errs int

	for _, t := range seed.Teams {
		res, err := db.Exec(`
			INSERT INTO teams (id, sport_id, name, code, city, captain_id, home_lat, home_lng)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING`,
			t.ID, t.SportID, t.Name, t.Code, t.City, t.CaptainID, t.HomeLat, t.HomeLng,
		)
		tally(res, err, t.Name, &inserted, &skipped, &errs)
	}

	for _, v := range seed.Venues {
		res, err := db.Exec(`
			INSERT INTO venues (id, vendor_id, name, address, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			v.ID, v.VendorID, v.Name, v.Address, v.Lat, v.Lng,
		)
		tally(res, err, v.Name, &inserted, &skipped, &errs)
	}

	for _, s := range seed.Slots {
		relID := uuid.New()
		if _, err := db.Exec(`
			INSERT INTO team_venue_relationships (id, team_id, venue_id, venue_rating, matches_played)
			VALUES ($1, $2, $3, 3.0, 0)
			ON CONFLICT (team_id, venue_id) DO NOTHING`,
			relID, s.TeamID, s.VenueID,
		); err != nil {
			fmt.Fprintf(os.Stderr, "relationship for slot %s: %v\n", s.ID, err)
			errs++
			continue
		}

		// Re-read: the relationship may have existed already.
		if err := db.QueryRow(
			`SELECT id FROM team_venue_relationships WHERE team_id = $1 AND venue_id = $2`,
			s.TeamID, s.VenueID,
		).Scan(&relID); err != nil {
			fmt.Fprintf(os.Stderr, "lookup relationship for slot %s: %v\n", s.ID, err)
			errs++
			continue
		}

		res, err := db.Exec(`
			INSERT INTO availability_slots (id, team_id, relationship_id, day_of_week, start_time, end_time, max_matches_per_week)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (team_id, day_of_week, start_time, end_time) DO NOTHING`,
			s.ID, s.TeamID, relID, s.DayOfWeek, s.StartTime, s.EndTime, s.MaxMatchesPerWeek,
		)
		tally(res, err, s.ID, &inserted, &skipped, &errs)
	}

	fmt.Printf("seed complete: %d inserted, %d skipped, %d errors\n", inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}

func tally(res sql.Result, err error, label string, inserted, skipped, errs *int) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", label, err)
		*errs++
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		*inserted++
	} else {
		*skipped++
	}
}
