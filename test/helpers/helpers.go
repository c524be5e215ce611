// Package helpers provides shared fixtures for integration tests.
package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/sirupsen/logrus"
)

// QuietLogger returns a logger that discards everything below panic.
func QuietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// Outcome is one priced outcome in a provider payload.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Market is one market in a provider payload.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Bookmaker is one bookmaker in a provider payload.
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Event is one event in a provider payload.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// MoneylineBookmaker builds a bookmaker quoting a two-way moneyline.
func MoneylineBookmaker(key, home, away string, homePrice, awayPrice float64) Bookmaker {
	return Bookmaker{
		Key:        key,
		Title:      key,
		LastUpdate: time.Now().UTC(),
		Markets: []Market{{
			Key: "h2h",
			Outcomes: []Outcome{
				{Name: home, Price: homePrice},
				{Name: away, Price: awayPrice},
			},
		}},
	}
}

// TotalsBookmaker builds a bookmaker quoting an over/under total.
func TotalsBookmaker(key string, line float64, overPrice, underPrice float64) Bookmaker {
	return Bookmaker{
		Key:        key,
		Title:      key,
		LastUpdate: time.Now().UTC(),
		Markets: []Market{{
			Key: "totals",
			Outcomes: []Outcome{
				{Name: "Over", Price: overPrice, Point: &line},
				{Name: "Under", Price: underPrice, Point: &line},
			},
		}},
	}
}

// OddsAPIServer serves the given events for every sport requested, in the
// provider's wire format.
func OddsAPIServer(events []Event) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-requests-remaining", "500")
		_ = json.NewEncoder(w).Encode(events)
	}))
}
