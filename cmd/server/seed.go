package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/charlesng35/investorportal/internal/app"
	"github.com/charlesng35/investorportal/internal/services"
)

// offeringSeed is one entry of the "offerings" list in a catalogue file.
type offeringSeed struct {
	Title         string    `mapstructure:"title"`
	Slug          string    `mapstructure:"slug"`
	StartDate     time.Time `mapstructure:"start_date"`
	EndDate       time.Time `mapstructure:"end_date"`
	MediaURL      string    `mapstructure:"media_url"`
	IsActive      *bool     `mapstructure:"is_active"`
	IRR           float64   `mapstructure:"irr"`
	MOIC          float64   `mapstructure:"moic"`
	Summary       string    `mapstructure:"summary"`
	Minimum       int64     `mapstructure:"minimum"`
	Tags          []string  `mapstructure:"tags"`
	InvestorTypes []string  `mapstructure:"investor_types"`
}

// loadOfferingSeeds reads a YAML or JSON catalogue file. Dates use YYYY-MM-DD
// and list fields may be given as comma separated strings.
func loadOfferingSeeds(path string) ([]services.OfferingImport, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read offering seeds: %w", err)
	}

	var seeds []offeringSeed
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.DateOnly),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.UnmarshalKey("offerings", &seeds, hook); err != nil {
		return nil, fmt.Errorf("decode offering seeds: %w", err)
	}
	if len(seeds) == 0 {
		return nil, errors.New("offering seed file lists no offerings")
	}

	entries := make([]services.OfferingImport, 0, len(seeds))
	for _, s := range seeds {
		entries = append(entries, services.OfferingImport{
			CreateOfferingInput: services.CreateOfferingInput{
				Title:     s.Title,
				Slug:      s.Slug,
				StartDate: s.StartDate,
				EndDate:   s.EndDate,
				MediaURL:  s.MediaURL,
				IsActive:  s.IsActive,
				IRR:       s.IRR,
				MOIC:      s.MOIC,
				Summary:   s.Summary,
				Minimum:   s.Minimum,
				Tags:      s.Tags,
			},
			InvestorTypes: s.InvestorTypes,
		})
	}
	return entries, nil
}

// seedOfferings migrates the database and imports the catalogue file.
// Offerings whose slug already exists are left untouched.
func seedOfferings(ctx context.Context, cfg *app.Config, path string, log *zap.Logger) error {
	entries, err := loadOfferingSeeds(path)
	if err != nil {
		return err
	}

	db, err := initialiseDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	offerings, err := services.NewOfferingService(db)
	if err != nil {
		return err
	}
	result, err := offerings.Import(ctx, entries)
	if err != nil {
		return err
	}
	log.Info("offering catalogue imported",
		zap.String("file", path),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return nil
}
