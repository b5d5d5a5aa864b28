package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wayfarer/auth"
	"wayfarer/config"
	"wayfarer/db"
	"wayfarer/models"
)

const (
	demoUserID = "user_demo"
	demoTitle  = "Goa 3-day Adventure"
)

var (
	printToken bool
	tokenTTL   time.Duration
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference places and a demo user",
	Long: `Upserts the Goa and Jaipur places with a few POIs, and a demo user
owning one itinerary. Running it twice does not duplicate the itinerary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, func(c *config.Config) { c.Model.Provider = "fixture" })
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		store, closeStore, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore(context.Background()) }()

		if err := seed(ctx, store, time.Now().UTC(), log); err != nil {
			return err
		}

		if printToken {
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("--token needs JWT_SECRET")
			}
			token, err := auth.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(demoUserID, auth.Claims{
				Name:          "Demo Traveller",
				Email:         "demo@wayfarer.local",
				EmailVerified: true,
				Provider:      "seed",
			}, tokenTTL)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&printToken, "token", false, "Print a bearer token for the demo user")
	seedCmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of the printed token")
}

func seedPlaces(now time.Time) []models.Place {
	return []models.Place{
		{PlaceID: "goa", Name: "Goa", Type: "state", Lat: 15.2993, Lng: 74.1240, Country: "India", UpdatedAt: now},
		{PlaceID: "jaipur", Name: "Jaipur", Type: "city", Lat: 26.9124, Lng: 75.7873, Country: "India", UpdatedAt: now},
	}
}

func seedPOIs(now time.Time) []models.POI {
	return []models.POI{
		{
			PoiID: "poi_anjuna", Name: "Anjuna Beach", PlaceID: "goa",
			Lat: 15.5733, Lng: 73.7400,
			Categories:      []string{models.CategoryNature, models.CategoryNightlife},
			ShortDesc:       "Rocky beach known for its Wednesday flea market and sunset shacks.",
			PopularityScore: 0.87, AvgDurationMins: 180, UpdatedAt: now,
		},
		{
			PoiID: "poi_hawa_mahal", Name: "Hawa Mahal", PlaceID: "jaipur",
			Lat: 26.9239, Lng: 75.8267,
			Categories:      []string{models.CategoryHeritage, models.CategoryCulture},
			ShortDesc:       "Pink sandstone palace with 953 latticed windows.",
			PopularityScore: 0.93, AvgDurationMins: 90, UpdatedAt: now,
		},
	}
}

func demoItinerary() *models.Itinerary {
	cost := func(v float64) *float64 { return &v }
	lat, lng := 15.5733, 73.7400
	total := 9500.0
	return &models.Itinerary{
		Title: demoTitle,
		Input: models.ItineraryInput{
			Destination: "Goa",
			StartDate:   "2025-11-14",
			EndDate:     "2025-11-16",
			NumDays:     3,
			Budget:      15000,
			Sliders:     map[string]float64{"adventure": 80, "nature": 60, "nightlife": 40},
		},
		Days: []models.Day{
			{DayIndex: 1, Date: "2025-11-14", Activities: []models.Activity{
				{Title: "Anjuna Beach sunset", DurationMins: 180, Category: models.CategoryNature, PoiID: "poi_anjuna", Cost: cost(0), TimeOfDay: "evening"},
				{Title: "Beach shack dinner", DurationMins: 90, Category: models.CategoryFood, Cost: cost(1200),
					PoiSnapshot: &models.PoiSnapshot{Name: "Curlies", Lat: &lat, Lng: &lng}},
			}},
			{DayIndex: 2, Date: "2025-11-15", Activities: []models.Activity{
				{Title: "Scuba diving at Grande Island", DurationMins: 240, Category: models.CategoryAdventure, Cost: cost(5500),
					PoiSnapshot: &models.PoiSnapshot{Name: "Grande Island"}, SafetyNote: "Dive only with certified operators."},
			}},
			{DayIndex: 3, Date: "2025-11-16", Activities: []models.Activity{
				{Title: "Dudhsagar Falls trek", DurationMins: 300, Category: models.CategoryNature, Cost: cost(2800),
					PoiSnapshot: &models.PoiSnapshot{Name: "Dudhsagar Falls"}},
			}},
		},
		EstimatedCost: &total,
		Meta:          map[string]any{"generatedBy": "seed"},
	}
}

// seed upserts reference data and the demo user. The demo itinerary is
// only added when the user has none with the same title.
func seed(ctx context.Context, store db.Store, now time.Time, log *zap.Logger) error {
	for _, p := range seedPlaces(now) {
		if err := store.UpsertPlace(ctx, p); err != nil {
			return fmt.Errorf("upsert place %s: %w", p.PlaceID, err)
		}
	}
	for _, p := range seedPOIs(now) {
		if err := store.UpsertPOI(ctx, p); err != nil {
			return fmt.Errorf("upsert poi %s: %w", p.PoiID, err)
		}
	}

	if _, err := store.UpsertUser(ctx, models.User{
		UserID:        demoUserID,
		DisplayName:   "Demo Traveller",
		Email:         "demo@wayfarer.local",
		EmailVerified: true,
		Provider:      "seed",
	}); err != nil {
		return fmt.Errorf("upsert demo user: %w", err)
	}

	owner := db.UserOwner(demoUserID)
	existing, err := store.ListItineraries(ctx, owner, 0)
	if err != nil {
		return fmt.Errorf("list demo itineraries: %w", err)
	}
	for _, it := range existing {
		if it.Title == demoTitle {
			log.Info("demo itinerary already present", zap.String("itinerary", it.ItineraryID))
			return nil
		}
	}
	id, err := store.SaveItinerary(ctx, owner, demoItinerary())
	if err != nil {
		return fmt.Errorf("save demo itinerary: %w", err)
	}
	log.Info("seeded",
		zap.Int("places", len(seedPlaces(now))),
		zap.Int("pois", len(seedPOIs(now))),
		zap.String("user", demoUserID),
		zap.String("itinerary", id))
	return nil
}
