package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/metrics"
	"wayfarer/mq"
)

// MigrationResult reports what a session migration did.
type MigrationResult struct {
	Migrated        bool   `json:"migrated"`
	ItineraryCount  int    `json:"itineraryCount"`
	Failed          int    `json:"failed,omitempty"`
	AlreadyMigrated bool   `json:"alreadyMigrated,omitempty"`
	MigratedTo      string `json:"migratedTo,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Migrator copies a guest session's itineraries to a user account.
type Migrator struct {
	store   db.Store
	events  mq.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewMigrator(store db.Store, events mq.Publisher, m *metrics.Metrics, log *zap.Logger) *Migrator {
	if events == nil {
		events = mq.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{store: store, events: events, metrics: m, log: log.Named("migrate"), now: time.Now}
}

// Migrate claims the session for uid and copies each of its itineraries
// under the user with a fresh id. Originals stay with the session. A
// session can be claimed once; later calls copy nothing. The itineraries
// are listed before the claim so a failed read leaves the session
// unclaimed. Copies are independent, so one failed copy does not undo the
// others.
func (m *Migrator) Migrate(ctx context.Context, sessionID, uid string) (*MigrationResult, error) {
	log := m.log.With(zap.String("session", sessionID), zap.String("uid", uid))
	source := db.SessionOwner(sessionID)

	owned, err := m.store.ListItineraries(ctx, source, 0)
	if err != nil {
		return nil, errs.Persistence(err)
	}

	sess, err := m.store.ClaimSessionMigration(ctx, sessionID, uid)
	switch {
	case errors.Is(err, db.ErrSessionNotFound):
		m.metrics.Migrated("not_found", 0)
		return &MigrationResult{Reason: "session not found"}, nil
	case errors.Is(err, db.ErrAlreadyMigrated):
		m.metrics.Migrated("already_migrated", 0)
		res := &MigrationResult{AlreadyMigrated: true, Reason: "session already migrated"}
		if sess != nil && sess.MigratedTo != nil {
			res.MigratedTo = *sess.MigratedTo
		}
		log.Info("session already migrated", zap.String("migrated_to", res.MigratedTo))
		return res, nil
	case err != nil:
		return nil, errs.Persistence(err)
	}

	// Pick up itineraries saved between the first listing and the claim.
	if latest, err := m.store.ListItineraries(ctx, source, 0); err == nil {
		owned = latest
	} else {
		log.Warn("relisting after claim failed, using first listing", zap.Error(err))
	}

	now := m.now().UTC()
	res := &MigrationResult{Migrated: true, MigratedTo: uid}
	target := db.UserOwner(uid)
	for i := range owned {
		it := owned[i]
		it.MigratedFromSession = sessionID
		it.MigratedAt = &now
		if _, err := m.store.CopyItinerary(ctx, target, &it); err != nil {
			res.Failed++
			log.Error("itinerary copy failed", zap.String("itinerary", it.ItineraryID), zap.Error(err))
			continue
		}
		res.ItineraryCount++
	}

	m.metrics.Migrated("ok", res.ItineraryCount)
	mq.Emit(ctx, m.events, log, mq.Event{
		Type: mq.EventMigrated, OwnerKind: string(db.OwnerUser), OwnerID: uid, Count: res.ItineraryCount,
	})
	log.Info("session migrated", zap.Int("itineraries", res.ItineraryCount), zap.Int("failed", res.Failed))
	return res, nil
}
