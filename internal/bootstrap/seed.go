package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/formdb/internal/agency"
	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/metrics"
)

// seed inserts the bootstrap agencies.
//
// Production: when all three init values are set and the collection is
// empty, the init agency is upserted on its short name.
// Ephemeral: the dev agencies are inserted with no existence check; the
// instance is assumed fresh.
// The agencies index is only built by runs that write agencies.
func (b *Bootstrapper) seed(ctx context.Context, r *runLog, cfg *config.Config, res *Result) error {
	if err := b.seedInit(ctx, r, cfg.Seed.InitAgency, res); err != nil {
		return err
	}
	if res.Mode == config.ModeEphemeral {
		return b.seedDev(ctx, r, res)
	}
	return nil
}

func (b *Bootstrapper) seedInit(ctx context.Context, r *runLog, init config.InitAgency, res *Result) error {
	a, ok := agency.FromInit(init)
	if !ok {
		if init != (config.InitAgency{}) {
			r.info(ctx, ActionSeed, "init agency incomplete, skipping")
		}
		return nil
	}
	if err := agency.Validate(a); err != nil {
		r.fail(ctx, ActionSeed, "init agency rejected", "error", err.Error())
		return fmt.Errorf("seed: %w", err)
	}

	n, err := res.Conn.CountAgencies(ctx)
	if err != nil {
		r.fail(ctx, ActionSeed, "agency count failed", "error", err.Error())
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		r.info(ctx, ActionSeed, "agencies present, skipping init agency", "count", strconv.FormatInt(n, 10))
		return nil
	}

	if err := ensureIndexes(ctx, r, res.Conn); err != nil {
		return err
	}
	inserted, err := res.Conn.UpsertAgency(ctx, a)
	if err != nil {
		r.fail(ctx, ActionSeed, "init agency upsert failed", "shortName", a.ShortName, "error", err.Error())
		return fmt.Errorf("seed: %w", err)
	}
	if inserted {
		res.Seeded = append(res.Seeded, a.ShortName)
		b.metrics.AgenciesSeeded(metrics.SourceInit, 1)
		r.info(ctx, ActionSeed, "init agency seeded", "shortName", a.ShortName)
	}
	return nil
}

func (b *Bootstrapper) seedDev(ctx context.Context, r *runLog, res *Result) error {
	if err := ensureIndexes(ctx, r, res.Conn); err != nil {
		return err
	}
	dev := agency.DevAgencies()
	if err := res.Conn.InsertAgencies(ctx, dev); err != nil {
		r.fail(ctx, ActionSeed, "dev agency insert failed", "error", err.Error())
		return fmt.Errorf("seed: %w", err)
	}

	names := agency.ShortNames(dev)
	res.Seeded = append(res.Seeded, names...)
	b.metrics.AgenciesSeeded(metrics.SourceDev, len(dev))
	r.info(ctx, ActionSeed, "dev agencies seeded", "shortNames", strings.Join(names, ","))
	return nil
}

func ensureIndexes(ctx context.Context, r *runLog, conn Conn) error {
	if err := conn.EnsureIndexes(ctx); err != nil {
		r.fail(ctx, ActionSeed, "index creation failed", "error", err.Error())
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
