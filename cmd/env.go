package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/config"
	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/geo"
	"github.com/sells-group/rrf-map/internal/monitoring"
	"github.com/sells-group/rrf-map/internal/normalize"
	"github.com/sells-group/rrf-map/internal/proximity"
	"github.com/sells-group/rrf-map/internal/registry"
	"github.com/sells-group/rrf-map/internal/resilience"
	"github.com/sells-group/rrf-map/internal/store"
	"github.com/sells-group/rrf-map/internal/view"
	"github.com/sells-group/rrf-map/pkg/geocode"
)

// initStore opens and migrates the configured store. Callers should defer
// Close.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// loadTables returns the band table and carrier rules, from files when
// configured.
func loadTables(c config.FacetsConfig) (classify.BandTable, classify.RuleSet, error) {
	bands, err := classify.LoadBandsFile(c.BandTablePath)
	if err != nil {
		return nil, nil, err
	}
	rules, err := classify.LoadRulesFile(c.CarrierRulesPath)
	if err != nil {
		return nil, nil, err
	}
	return bands, rules, nil
}

// resolverConfig maps configuration onto the coordinate resolver.
func resolverConfig(c config.GeoConfig) geo.ResolverConfig {
	rc := geo.DefaultResolverConfig()
	if len(c.DirectTags) > 0 {
		rc.DirectTags = c.DirectTags
	}
	if c.ProjectedTag != "" {
		rc.ProjectedTag = c.ProjectedTag
	}
	if c.MinLat < c.MaxLat && c.MinLon < c.MaxLon {
		rc.Plausible = geo.Bounds{MinLat: c.MinLat, MaxLat: c.MaxLat, MinLon: c.MinLon, MaxLon: c.MaxLon}
	}
	return rc
}

// transforms registers the NZTM2000 inverse under the projected tag when
// enabled.
func transforms(c config.GeoConfig) (*geo.Registry, error) {
	reg := geo.NewRegistry()
	if !c.EnableTM2000 {
		zap.L().Warn("projected coordinate transform disabled; TM2000 references will not resolve")
		return reg, nil
	}
	tag := c.ProjectedTag
	if tag == "" {
		tag = geo.DefaultResolverConfig().ProjectedTag
	}
	if err := reg.Register(tag, geo.NZTM2000()); err != nil {
		return nil, err
	}
	return reg, nil
}

func newNormalizer() (*normalize.Normalizer, error) {
	bands, rules, err := loadTables(cfg.Facets)
	if err != nil {
		return nil, err
	}
	reg, err := transforms(cfg.Geo)
	if err != nil {
		return nil, err
	}
	return normalize.New(geo.NewResolver(resolverConfig(cfg.Geo), reg), bands, rules), nil
}

func newEngine() (*facet.Engine, error) {
	bands, _, err := loadTables(cfg.Facets)
	if err != nil {
		return nil, err
	}
	return facet.NewEngine(bands, cfg.Facets.ExcludedCarriers), nil
}

func viewOptions(c config.ClusterConfig) view.Options {
	return view.Options{
		RadiusMeters: c.RadiusM,
		OffsetMeters: c.OffsetM,
		RecentLimit:  c.RecentLimit,
	}
}

func proximityConfig(c config.ClusterConfig) proximity.Config {
	pc := proximity.DefaultConfig()
	if len(c.PrimaryCarriers) > 0 {
		pc.Primary = c.PrimaryCarriers
	}
	if c.SecondaryCarrier != "" {
		pc.Secondary = c.SecondaryCarrier
	}
	return pc
}

func newRegistryClient(c config.RegistryConfig) *registry.Client {
	return registry.NewClient(registry.Options{
		APIURL:     c.APIURL,
		UserAgent:  c.UserAgent,
		Timeout:    time.Duration(c.TimeoutSecs) * time.Second,
		RatePerSec: c.RatePerSec,
		Retry:      resilience.FromRetryConfig(c.MaxRetries, 0, 0),
	})
}

// newGeocoder returns a cached Nominatim client, or nil when no base URL
// is configured.
func newGeocoder(c config.GeocodeConfig, m *monitoring.Metrics) geocode.Geocoder {
	if c.BaseURL == "" {
		return nil
	}
	opts := []geocode.Option{
		geocode.WithBaseURL(c.BaseURL),
		geocode.WithMetrics(m),
	}
	if c.UserAgent != "" {
		opts = append(opts, geocode.WithUserAgent(c.UserAgent))
	}
	if c.RatePerSec > 0 {
		opts = append(opts, geocode.WithRateLimit(c.RatePerSec))
	}
	client := geocode.NewClient(opts...)
	if c.CacheSize <= 0 {
		return client
	}
	return geocode.NewCachedGeocoder(client, c.CacheSize, m)
}
