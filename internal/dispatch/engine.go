// Package dispatch ranks hospitals and ambulances by proximity, assigns the
// nearest available ambulance to emergencies and drives the incident,
// availability and booking state machines.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

// Mode selects the search radius policy.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeEmergency Mode = "emergency"
)

// ParseMode accepts "", "normal" and "emergency".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeEmergency:
		return ModeEmergency, nil
	}
	return "", apperr.Validation("mode", "must be normal or emergency")
}

// Policy holds the radius defaults and the claim retry budget.
type Policy struct {
	EmergencyRadiusKm float64
	NormalRadiusKm    float64
	ClaimAttempts     int
	FallbackNumber    string
}

// DefaultPolicy is 25 km for emergencies, 10 km otherwise, and "call112"
// as the fallback signal.
var DefaultPolicy = Policy{EmergencyRadiusKm: 25, NormalRadiusKm: 10, ClaimAttempts: 3, FallbackNumber: "112"}

func (p Policy) radius(m Mode) float64 {
	if m == ModeEmergency {
		return p.EmergencyRadiusKm
	}
	return p.NormalRadiusKm
}

// Fallback is the signal telling the caller to use the external emergency
// number, e.g. "call112".
func (p Policy) Fallback() string { return "call" + p.FallbackNumber }

// Engine is the dispatch engine. All availability and incident mutation goes
// through it; handlers never write ambulance or incident status directly.
//
// The engine owns three concerns:
//
//	search    ranks hospitals and ambulances around a point (haversine)
//	intake    stores an emergency and claims the nearest available ambulance
//	lifecycle moves incidents, ambulances and bookings through their states
//
// Persistence is the injected Store. Claims and conditional transitions are
// enforced by the store inside a transaction, so two engines sharing one
// database never hand the same ambulance to two incidents. The Notifier and
// Observer are optional and are told about outcomes after the fact; their
// failures are logged and never fail the caller.
type Engine struct {
	store    Store
	policy   Policy
	notifier Notifier
	observer Observer
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option       { return func(e *Engine) { e.notifier = n } }
func WithObserver(o Observer) Option       { return func(e *Engine) { e.observer = o } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store Store, policy Policy, log zerolog.Logger, opts ...Option) *Engine {
	if policy.ClaimAttempts < 1 {
		policy.ClaimAttempts = 1
	}
	e := &Engine{
		store:  store,
		policy: policy,
		log:    log.With().Str("component", "dispatch").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Search scopes. Proximity results are ranked by distance; directory
// results are listed as stored.
const (
	ScopeProximity = "proximity"
	ScopeCity      = "city"
	ScopeAll       = "all"
)

// SearchResult is a ranked candidate set. Fallback is only set for an empty
// emergency-mode proximity search, so callers can tell it apart from an
// ordinary empty result. Directory is filled instead of Results when the
// hospital search was a city or full directory lookup.
type SearchResult[T Locatable] struct {
	Scope     string      `json:"scope"`
	Mode      Mode        `json:"mode"`
	RadiusKm  float64     `json:"radius_km,omitempty"`
	Results   []Ranked[T] `json:"results"`
	Directory []T         `json:"directory,omitempty"`
	Fallback  string      `json:"fallback,omitempty"`
}

// SearchQuery selects a hospital search. A non-empty City wins and lists
// that city's hospitals; otherwise both coordinates give a proximity search
// with MaxDistanceKm (when positive) or the mode's radius; with neither the
// whole directory is returned.
type SearchQuery struct {
	Latitude      *float64
	Longitude     *float64
	MaxDistanceKm float64
	Mode          Mode
	City          string
}

// SearchAmbulances ranks available ambulances around the point using the
// mode's radius.
func (e *Engine) SearchAmbulances(ctx context.Context, lat, lon float64, mode Mode) (SearchResult[model.Ambulance], error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return SearchResult[model.Ambulance]{}, err
	}
	pool, err := e.store.ListAvailableAmbulances(ctx)
	if err != nil {
		return SearchResult[model.Ambulance]{}, fmt.Errorf("list available ambulances: %w", err)
	}
	radius := e.policy.radius(mode)
	res := newResult(e.policy, mode, radius, RankByDistance(pool, lat, lon, radius))
	e.observeSearch("ambulance", mode, len(res.Results))
	return res, nil
}

// SearchHospitals runs a city lookup, a proximity search or a full
// directory listing depending on which parts of q are set.
func (e *Engine) SearchHospitals(ctx context.Context, q SearchQuery) (SearchResult[model.Hospital], error) {
	if q.Mode == "" {
		q.Mode = ModeNormal
	}
	if city := strings.TrimSpace(q.City); city != "" {
		list, err := e.store.HospitalsByCity(ctx, city)
		if err != nil {
			return SearchResult[model.Hospital]{}, fmt.Errorf("hospitals by city: %w", err)
		}
		return directoryResult(ScopeCity, q.Mode, list), nil
	}
	if q.Latitude == nil && q.Longitude == nil {
		list, err := e.store.ListHospitals(ctx)
		if err != nil {
			return SearchResult[model.Hospital]{}, fmt.Errorf("list hospitals: %w", err)
		}
		return directoryResult(ScopeAll, q.Mode, list), nil
	}
	if q.Latitude == nil {
		return SearchResult[model.Hospital]{}, apperr.Validation("latitude", "required")
	}
	if q.Longitude == nil {
		return SearchResult[model.Hospital]{}, apperr.Validation("longitude", "required")
	}
	lat, lon := *q.Latitude, *q.Longitude
	if err := ValidateCoordinates(lat, lon); err != nil {
		return SearchResult[model.Hospital]{}, err
	}
	maxKm := q.MaxDistanceKm
	if math.IsNaN(maxKm) || math.IsInf(maxKm, 0) || maxKm < 0 {
		return SearchResult[model.Hospital]{}, apperr.Validation("max_distance", "must be a finite, non-negative number")
	}
	radius := maxKm
	if radius == 0 {
		radius = e.policy.radius(q.Mode)
	}
	all, err := e.store.ListHospitals(ctx)
	if err != nil {
		return SearchResult[model.Hospital]{}, fmt.Errorf("list hospitals: %w", err)
	}
	res := newResult(e.policy, q.Mode, radius, RankByDistance(all, lat, lon, radius))
	e.observeSearch("hospital", q.Mode, len(res.Results))
	return res, nil
}

func directoryResult(scope string, mode Mode, list []model.Hospital) SearchResult[model.Hospital] {
	if list == nil {
		list = []model.Hospital{}
	}
	return SearchResult[model.Hospital]{Scope: scope, Mode: mode, Results: []Ranked[model.Hospital]{}, Directory: list}
}

func (e *Engine) observeSearch(kind string, mode Mode, n int) {
	if e.observer != nil {
		e.observer.ObserveSearch(kind, string(mode), n)
	}
}

func (e *Engine) observeDispatch(outcome string) {
	if e.observer != nil {
		e.observer.ObserveDispatch(outcome)
	}
}

func newResult[T Locatable](p Policy, mode Mode, radius float64, ranked []Ranked[T]) SearchResult[T] {
	out := SearchResult[T]{Scope: ScopeProximity, Mode: mode, RadiusKm: radius, Results: ranked}
	if mode == ModeEmergency && len(ranked) == 0 {
		out.Fallback = p.Fallback()
	}
	return out
}
