package logbook

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"rostat-backend/lib/cacheutil"
	"rostat-backend/lib/scrapers/rowlog"
	"rostat-backend/lib/textutil"
	"rostat-backend/lib/timezone"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/logbook")

// Client is the slice of the logbook API the service depends on.
type Client interface {
	RawTrips(ctx context.Context, from, to string) (string, error)
	Members(ctx context.Context) ([]rowlog.RawMember, error)
	MemberTypes(ctx context.Context) ([]rowlog.MemberType, error)
}

// Config tunes the fetch pipeline. A zero value on any field means "use the
// DefaultConfig value for it", so the zero Config is fully usable and partial
// configs only override what they set. None of the tunables have a meaningful
// zero setting: a zero freshness window or throttle would be a misconfiguration
// rather than an extreme, so no sentinel for "really zero" is provided.
type Config struct {
	// directory holding the durable trip page cache
	CacheDir string `json:"cache_dir"`
	// days before the most recent cached date that are refetched fresh,
	// upstream allows retroactive edits for about this long
	FreshnessWindowDays int `json:"freshness_window_days"`
	// lifetime of the in-memory member directory and season ledgers
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
	// upstream rate limit, at most ThrottleParallelism fetches per window
	ThrottleWindowMillis int `json:"throttle_window_millis"`
	ThrottleParallelism  int `json:"throttle_parallelism"`
	// the season allow-list, the last entry is the initial current season
	Seasons []int `json:"seasons"`
}

func DefaultConfig() Config {
	return Config{
		CacheDir:             "work-cache",
		FreshnessWindowDays:  10,
		CacheTTLSeconds:      3600,
		ThrottleWindowMillis: 100,
		ThrottleParallelism:  10,
		Seasons:              []int{2021, 2022, 2023, 2024, 2025},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.FreshnessWindowDays == 0 {
		c.FreshnessWindowDays = def.FreshnessWindowDays
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = def.CacheTTLSeconds
	}
	if c.ThrottleWindowMillis == 0 {
		c.ThrottleWindowMillis = def.ThrottleWindowMillis
	}
	if c.ThrottleParallelism == 0 {
		c.ThrottleParallelism = def.ThrottleParallelism
	}
	if len(c.Seasons) == 0 {
		c.Seasons = def.Seasons
	}
	return c
}

// Service owns the fetch and cache pipeline and exposes the read-only query
// surface the reporting code runs on.
type Service struct {
	client  Client
	cfg     Config
	reg     *cacheutil.Registry
	durable *cacheutil.Durable
	members *cacheutil.Memo[*MemberDirectory]
	ledgers *cacheutil.Keyed[*TripLedger]

	mu            sync.Mutex
	currentSeason int
}

func NewService(client Client, cfg Config) *Service {
	cfg = cfg.withDefaults()
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	s := &Service{
		client:        client,
		cfg:           cfg,
		reg:           cacheutil.NewRegistry(),
		currentSeason: cfg.Seasons[len(cfg.Seasons)-1],
	}

	producer := cacheutil.Throttle(
		s.tripPageProducer,
		time.Duration(cfg.ThrottleWindowMillis)*time.Millisecond,
		cfg.ThrottleParallelism,
	)
	s.durable = cacheutil.NewDurable(
		filepath.Join(cfg.CacheDir, "fetchTrips.cache"),
		producer,
	)
	s.members = cacheutil.NewMemo(s.reg, ttl, s.buildDirectory)
	s.ledgers = cacheutil.NewKeyed[*TripLedger](s.reg, len(cfg.Seasons)+1, ttl)

	return s
}

func (s *Service) buildDirectory(ctx context.Context) (*MemberDirectory, error) {
	ctx, span := tracer.Start(ctx, "buildDirectory")
	defer span.End()

	raw, err := s.client.Members(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetching members: %w", err)
	}
	types, err := s.client.MemberTypes(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetching member types: %w", err)
	}
	typeByID := map[int]string{}
	for _, t := range types {
		typeByID[t.ID] = t.Description
	}

	var members []Member
	for _, m := range raw {
		if m.ID == GuestID {
			continue
		}
		members = append(members, Member{
			ID:          m.ID,
			Name:        textutil.NormalizeName(m.Name),
			Email:       m.EmailAddress,
			Phone:       m.PhoneNo,
			Address:     formatAddress(m),
			BirthDate:   parseUpstreamDate(m.BirthDate),
			MemberType:  typeByID[m.MemberTypeID],
			Permissions: m.PermissionCode,
			BoatAdmin:   m.BoatAdmin,
			SystemAdmin: m.SystemAdmin,
			Newsletter:  m.Newsletter,
			Raw:         m,
		})
	}
	return NewMemberDirectory(members), nil
}

func formatAddress(m rowlog.RawMember) string {
	address := m.Address
	if m.Address2 != "" {
		address += " " + m.Address2
	}
	return textutil.NormalizeName(fmt.Sprintf("%s, %s %s", address, m.PostCode, m.City))
}

func parseUpstreamDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if len(raw) > 10 {
		raw = raw[:10]
	}
	t, err := time.ParseInLocation(dayKeyFormat, raw, timezone.Location)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Members returns the member directory, cached for the configured TTL.
func (s *Service) Members(ctx context.Context) (*MemberDirectory, error) {
	return s.members.Get(ctx)
}

// Trips returns the trip ledger for the given season, the current season
// when omitted. ledgers cache independently per season.
func (s *Service) Trips(ctx context.Context, season ...int) (*TripLedger, error) {
	y := s.CurrentSeason()
	if len(season) > 0 {
		y = season[0]
	}
	if !s.validSeason(y) {
		return nil, InvalidSeasonError{Season: y}
	}

	return s.ledgers.GetOrSet(ctx, strconv.Itoa(y), func(ctx context.Context) (*TripLedger, error) {
		return s.buildLedger(ctx, y)
	})
}

func (s *Service) buildLedger(ctx context.Context, season int) (*TripLedger, error) {
	ctx, span := tracer.Start(ctx, "buildLedger")
	defer span.End()

	dir, err := s.Members(ctx)
	if err != nil {
		return nil, err
	}

	from, to := fetchWindow(season, timezone.Now())
	all, err := s.fetchRange(ctx, from, to, dir)
	if err != nil {
		return nil, fmt.Errorf("season %d: %w", season, err)
	}

	var trips []Trip
	for _, t := range all {
		if inSeason(t, season) {
			trips = append(trips, t)
		}
	}
	return NewTripLedger(season, trips), nil
}

// Seasons returns the configured allow-list.
func (s *Service) Seasons() []int {
	out := make([]int, len(s.cfg.Seasons))
	copy(out, s.cfg.Seasons)
	return out
}

func (s *Service) CurrentSeason() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSeason
}

// ChangeSeason switches the current season and invalidates every cache so
// the next query re-derives from upstream state.
func (s *Service) ChangeSeason(season int) error {
	if !s.validSeason(season) {
		return InvalidSeasonError{Season: season}
	}
	s.mu.Lock()
	s.currentSeason = season
	s.mu.Unlock()

	s.InvalidateCaches()
	return nil
}

// InvalidateCaches expires every memoized value process-wide. the durable
// on-disk cache is untouched.
func (s *Service) InvalidateCaches() {
	s.reg.InvalidateAll()
}

// ClearDurableCache deletes the on-disk trip page cache and expires the
// in-memory caches. destructive and non-recoverable, only ever run as an
// explicit operator action.
func (s *Service) ClearDurableCache() error {
	err := s.durable.Destroy()
	if err != nil {
		return err
	}
	s.InvalidateCaches()
	return nil
}
