package data

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/projections"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

// Reconciler walks current chain storage and repairs gaps in the store:
// projects that existed before the feed's start height, or that were
// missed while the indexer was down. It reads daoPortal.Projects
// directly and decodes the values with the typed schema.
type Reconciler struct {
	db     *gorm.DB
	proj   *projections.Projector
	rpcURL string
	client *daoportal.Client
}

func NewReconciler(db *gorm.DB, proj *projections.Projector, rpcURL string) *Reconciler {
	return &Reconciler{db: db, proj: proj, rpcURL: rpcURL}
}

func (r *Reconciler) connect() error {
	if r.client != nil {
		return nil
	}
	client, err := daoportal.NewClient(r.rpcURL)
	if err != nil {
		return fmt.Errorf("reconciler connect: %w", err)
	}
	r.client = client
	return nil
}

// Run reconciles once at startup and then on every interval tick.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	r.reconcileOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("reconciler: stopping")
			if r.client != nil {
				r.client.Close()
			}
			return
		case <-ticker.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *Reconciler) reconcileOnce(ctx context.Context) {
	if err := r.connect(); err != nil {
		log.Printf("reconciler: %v", err)
		return
	}

	if err := r.runReconcile(ctx); err != nil {
		log.Printf("reconciler: %v", err)
		// Force a reconnect on the next tick.
		r.client.Close()
		r.client = nil
	}
}

func (r *Reconciler) runReconcile(ctx context.Context) error {
	height, err := r.client.LatestHeight()
	if err != nil {
		return fmt.Errorf("latest height: %w", err)
	}

	ids, err := r.client.ProjectKeys()
	if err != nil {
		return fmt.Errorf("project keys: %w", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var dbCount int64
	r.db.Model(&types.Project{}).Count(&dbCount)
	log.Printf("reconciler: chain has %d projects, store has %d", len(ids), dbCount)

	created := 0
	repaired := 0

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		project, err := r.client.GetProject(id)
		if err != nil {
			return fmt.Errorf("project %d: %w", id, err)
		}
		if project == nil {
			continue
		}

		var record types.Project
		dbErr := r.db.First(&record, "id = ?", types.ProjectKey(id)).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			if err := r.proj.HandleProjectCreated(ctx, id, project, height); err != nil {
				log.Printf("reconciler: create project %d: %v", id, err)
				continue
			}
			created++
			continue
		}
		if dbErr != nil {
			return dbErr
		}

		// Existing records are refreshed only when the stored content
		// pointer disagrees with the chain; routine updates arrive
		// through the feed.
		if record.Data != string(project.Data) {
			if err := r.proj.HandleProjectUpdated(ctx, id, project, height); err != nil {
				log.Printf("reconciler: update project %d: %v", id, err)
				continue
			}
			repaired++
		}
	}

	if created > 0 || repaired > 0 {
		log.Printf("reconciler: sync complete - created %d, repaired %d projects", created, repaired)
	}
	return nil
}
