package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/phonebook/core/logger"
)

const (
	// DefaultRecentLimit is how many records the "all contacts" listing shows.
	DefaultRecentLimit = 10

	component = "service.contacts"
)

// Listing is the result of the "all contacts" display path.
type Listing struct {
	Contacts []Contact
	// Total counts every stored record, including the ones cut off.
	Total int
	// Truncated is set when only the most recent records are included.
	Truncated bool
}

// Stats summarises the directory for the admin /stats command.
type Stats struct {
	Contacts    int
	Regions     int
	Professions int
}

// Service is the query engine over a Store.
type Service struct {
	store       Store
	recentLimit int
}

// NewService builds a Service. recentLimit <= 0 selects DefaultRecentLimit.
func NewService(store Store, recentLimit int) *Service {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Service{store: store, recentLimit: recentLimit}
}

// RecentLimit reports the cutoff applied by Recent.
func (s *Service) RecentLimit() int {
	return s.recentLimit
}

// Add persists a completed draft and returns the stored record.
func (s *Service) Add(ctx context.Context, d Draft) (Contact, error) {
	if s == nil || s.store == nil {
		return Contact{}, fmt.Errorf("%w: %w", ErrStoreWrite, ErrStoreUnavailable)
	}
	start := time.Now()
	id, err := s.store.Insert(ctx, d)
	if err != nil {
		logger.Error(ctx, component, "contact.insert",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return Contact{}, err
	}
	logger.Info(ctx, component, "contact.insert",
		slog.String("status", "ok"),
		slog.Int64("contact_id", id),
		slog.Duration("duration", logger.Took(start)),
	)
	return Contact{
		ID:         id,
		Name:       d.Name,
		Phone:      d.Phone,
		Profession: cloneString(d.Profession),
		Region:     cloneString(d.Region),
	}, nil
}

// Query returns the records matching f in insertion order. An empty result
// is a zero-length slice, not an error.
func (s *Service) Query(ctx context.Context, f Filter) ([]Contact, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreUnavailable
	}
	start := time.Now()
	out, err := s.store.Query(ctx, f)
	attrs := queryAttrs(f)
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Error(ctx, component, "query.run", attrs...)
		return nil, err
	}
	attrs = append(attrs,
		slog.String("status", "ok"),
		slog.Int("count", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	logger.Debug(ctx, component, "query.run", attrs...)
	return out, nil
}

// Recent lists every record, keeping only the last RecentLimit by insertion
// order when there are more. Earlier records are omitted, not paginated.
func (s *Service) Recent(ctx context.Context) (Listing, error) {
	all, err := s.Query(ctx, Filter{})
	if err != nil {
		return Listing{}, err
	}
	l := Listing{Contacts: all, Total: len(all)}
	if len(all) > s.recentLimit {
		l.Contacts = all[len(all)-s.recentLimit:]
		l.Truncated = true
	}
	return l, nil
}

// DistinctRegions lists the regions in use. Order is unspecified.
func (s *Service) DistinctRegions(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, ColumnRegion)
}

// DistinctProfessions lists the professions in use. Order is unspecified.
func (s *Service) DistinctProfessions(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, ColumnProfession)
}

// Stats counts records and distinct optional values.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.Query(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	regions, err := s.DistinctRegions(ctx)
	if err != nil {
		return Stats{}, err
	}
	professions, err := s.DistinctProfessions(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Contacts: len(all), Regions: len(regions), Professions: len(professions)}, nil
}

func (s *Service) distinct(ctx context.Context, col Column) ([]string, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreUnavailable
	}
	values, err := s.store.DistinctValues(ctx, col)
	if err != nil {
		logger.Error(ctx, component, "query.distinct",
			slog.String("status", "fail"),
			slog.String("op", string(col)),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	logger.Debug(ctx, component, "query.distinct",
		slog.String("status", "ok"),
		slog.String("op", string(col)),
		slog.Int("count", len(values)),
	)
	return values, nil
}

func queryAttrs(f Filter) []slog.Attr {
	attrs := make([]slog.Attr, 0, 6)
	if f.Region != nil {
		attrs = append(attrs, slog.String("region", logger.SanitizeLimit(*f.Region, 64)))
	}
	if f.Profession != nil {
		attrs = append(attrs, slog.String("profession", logger.SanitizeLimit(*f.Profession, 64)))
	}
	return attrs
}
