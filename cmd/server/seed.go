package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/repository"
	"github.com/careguardian/careguardian-api/internal/session"
)

type seeder struct {
	users      *repository.UserRepo
	hospitals  *repository.HospitalRepo
	ambulances *repository.AmbulanceRepo
	hasher     session.Hasher
	log        zerolog.Logger
}

func coord(v float64) *float64 { return &v }

var demoHospitals = []model.Hospital{
	{Name: "City General Hospital", Address: "12 MG Road", City: "Bengaluru", State: "Karnataka", Phone: "080-4000-1000", Latitude: coord(12.9756), Longitude: coord(77.6050), EmergencyServices: true},
	{Name: "Lakeside Medical Centre", Address: "4 Outer Ring Road", City: "Bengaluru", State: "Karnataka", Phone: "080-4000-2000", Latitude: coord(12.9352), Longitude: coord(77.6245), EmergencyServices: true},
	{Name: "North Hills Clinic", Address: "88 Bellary Road", City: "Bengaluru", State: "Karnataka", Phone: "080-4000-3000", Latitude: coord(13.0358), Longitude: coord(77.5970), EmergencyServices: false},
}

var demoAmbulances = []model.Ambulance{
	{VehicleNumber: "KA-01-AM-1001", Status: model.AmbulanceAvailable, DriverName: "Ravi", Latitude: coord(12.9716), Longitude: coord(77.5946)},
	{VehicleNumber: "KA-01-AM-1002", Status: model.AmbulanceAvailable, DriverName: "Meena", Latitude: coord(12.9400), Longitude: coord(77.6200)},
}

// run creates the admin account and the demo directory when they are
// missing. It is safe to call on every start.
func (s seeder) run(ctx context.Context, adminPassword string) error {
	if err := s.admin(ctx, adminPassword); err != nil {
		return err
	}
	n, err := s.hospitals.Count(ctx)
	if err != nil {
		return fmt.Errorf("count hospitals: %w", err)
	}
	if n == 0 {
		for _, h := range demoHospitals {
			if _, err := s.hospitals.Create(ctx, h); err != nil {
				return fmt.Errorf("seed hospital %q: %w", h.Name, err)
			}
		}
		s.log.Info().Int("count", len(demoHospitals)).Msg("seeded demo hospitals")
	}
	n, err = s.ambulances.Count(ctx)
	if err != nil {
		return fmt.Errorf("count ambulances: %w", err)
	}
	if n == 0 {
		for _, a := range demoAmbulances {
			if _, err := s.ambulances.Create(ctx, a); err != nil {
				return fmt.Errorf("seed ambulance %q: %w", a.VehicleNumber, err)
			}
		}
		s.log.Info().Int("count", len(demoAmbulances)).Msg("seeded demo ambulances")
	}
	return nil
}

func (s seeder) admin(ctx context.Context, password string) error {
	if password == "" {
		s.log.Warn().Msg("SEED_ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}
	_, err := s.users.GetByUsername(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = s.users.CreateAccount(ctx, session.NewAccount{User: model.User{
		Username:     "admin",
		Email:        "admin@careguardian.com",
		PasswordHash: hash,
		Role:         model.RoleUser,
		FullName:     "Admin User",
	}})
	if err != nil && !errors.Is(err, apperr.ErrConflict) {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info().Msg("admin account created")
	return nil
}
