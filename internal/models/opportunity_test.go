package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFingerprintIsOrderIndependent(t *testing.T) {
	eventID := uuid.New()
	a := Quote{Source: "fanduel", EventID: eventID, MarketKind: MarketMoneyline, Side: SideHome, Price: +110}
	b := Quote{Source: "draftkings", EventID: eventID, MarketKind: MarketMoneyline, Side: SideAway, Price: +105}

	fwd := ArbitrageOpportunity{Legs: []Quote{a, b}}
	rev := ArbitrageOpportunity{Legs: []Quote{b, a}}
	assert.Equal(t, fwd.Fingerprint(), rev.Fingerprint())

	other := ArbitrageOpportunity{Legs: []Quote{a, {Source: "betmgm", EventID: eventID, MarketKind: MarketMoneyline, Side: SideAway, Price: +105}}}
	assert.NotEqual(t, fwd.Fingerprint(), other.Fingerprint())
}

func TestObservedAtIsMostRecentLeg(t *testing.T) {
	early := time.Date(2026, 9, 13, 16, 0, 0, 0, time.UTC)
	late := early.Add(45 * time.Second)

	opp := MiddleOpportunity{Legs: []Quote{
		{Source: "fanduel", ObservedAt: late},
		{Source: "draftkings", ObservedAt: early},
	}}
	assert.Equal(t, late, opp.ObservedAt())
}
