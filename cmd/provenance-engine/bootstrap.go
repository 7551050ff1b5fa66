package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/config"
	"github.com/atomledger/provenance-engine/pkg/decision"
	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/ids"
	"github.com/atomledger/provenance-engine/pkg/indexbuild"
	"github.com/atomledger/provenance-engine/pkg/pipeline"
	"github.com/atomledger/provenance-engine/pkg/policyloader"
	"github.com/atomledger/provenance-engine/pkg/storage/memory"
	"github.com/atomledger/provenance-engine/pkg/storage/postgres"
	"github.com/atomledger/provenance-engine/pkg/storage/sqlite"
	"github.com/atomledger/provenance-engine/pkg/validation"
	"github.com/atomledger/provenance-engine/pkg/validation/cel"
	"github.com/atomledger/provenance-engine/pkg/validation/rules"
)

// loadJSON reads and unmarshals the JSON document at path into v. An empty
// path is a no-op, leaving v at its zero value — subcommands treat that as
// "no seed data supplied".
func loadJSON(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadAtoms loads a JSON array of ExperienceAtom into a fresh
// AtomRepository. An empty path yields an empty repository.
func loadAtoms(path string) (*memory.AtomRepository, error) {
	repo := memory.NewAtomRepository()
	var atoms []domain.ExperienceAtom
	if err := loadJSON(path, &atoms); err != nil {
		return nil, err
	}
	for _, a := range atoms {
		repo.Upsert(a)
	}
	return repo, nil
}

// loadOpportunities loads a JSON array of Opportunity into a fresh
// OpportunityRepository.
func loadOpportunities(path string) (*memory.OpportunityRepository, error) {
	repo := memory.NewOpportunityRepository()
	var opportunities []domain.Opportunity
	if err := loadJSON(path, &opportunities); err != nil {
		return nil, err
	}
	for _, o := range opportunities {
		repo.Upsert(o)
	}
	return repo, nil
}

// loadResumes loads a JSON array of IngestedResume into a fresh
// ResumeStore.
func loadResumes(path string) (*memory.ResumeStore, error) {
	store := memory.NewResumeStore()
	var resumes []domain.IngestedResume
	if err := loadJSON(path, &resumes); err != nil {
		return nil, err
	}
	for _, r := range resumes {
		store.Upsert(r)
	}
	return store, nil
}

// openAtomStore opens the atom repository named by cfg.Storage.Backend and
// seeds it from the JSON array at seedPath. StorageMemory (the default, and
// the result of a nil/empty cfg) reuses loadAtoms's plain in-process
// repository; StorageSQLite and StoragePostgres open cfg.Storage.DSN through
// database/sql and seed the durable repository row by row, since each
// backend's Upsert returns an error the in-memory one doesn't have to.
func openAtomStore(cfg *config.Config, seedPath string) (pipeline.AtomLister, error) {
	backend := config.StorageMemory
	var dsn string
	if cfg != nil {
		backend = cfg.Storage.Backend
		dsn = cfg.Storage.DSN
	}

	var atoms []domain.ExperienceAtom
	if err := loadJSON(seedPath, &atoms); err != nil {
		return nil, err
	}

	switch backend {
	case config.StorageSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo, err := sqlite.NewAtomRepository(db)
		if err != nil {
			return nil, err
		}
		for _, a := range atoms {
			if err := repo.Upsert(a); err != nil {
				return nil, fmt.Errorf("seed atom %s: %w", a.AtomId.Value(), err)
			}
		}
		return repo, nil
	case config.StoragePostgres:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewAtomRepository(db)
		if err := repo.Init(context.Background()); err != nil {
			return nil, fmt.Errorf("init postgres atom schema: %w", err)
		}
		for _, a := range atoms {
			if err := repo.Upsert(a); err != nil {
				return nil, fmt.Errorf("seed atom %s: %w", a.AtomId.Value(), err)
			}
		}
		return repo, nil
	default:
		repo := memory.NewAtomRepository()
		for _, a := range atoms {
			repo.Upsert(a)
		}
		return repo, nil
	}
}

// openOpportunityStore is openAtomStore's counterpart for opportunities.
func openOpportunityStore(cfg *config.Config, seedPath string) (pipeline.OpportunityGetter, error) {
	backend := config.StorageMemory
	var dsn string
	if cfg != nil {
		backend = cfg.Storage.Backend
		dsn = cfg.Storage.DSN
	}

	var opportunities []domain.Opportunity
	if err := loadJSON(seedPath, &opportunities); err != nil {
		return nil, err
	}

	switch backend {
	case config.StorageSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo, err := sqlite.NewOpportunityRepository(db)
		if err != nil {
			return nil, err
		}
		for _, o := range opportunities {
			if err := repo.Upsert(o); err != nil {
				return nil, fmt.Errorf("seed opportunity %s: %w", o.OpportunityId.Value(), err)
			}
		}
		return repo, nil
	case config.StoragePostgres:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewOpportunityRepository(db)
		if err := repo.Init(context.Background()); err != nil {
			return nil, fmt.Errorf("init postgres opportunity schema: %w", err)
		}
		for _, o := range opportunities {
			if err := repo.Upsert(o); err != nil {
				return nil, fmt.Errorf("seed opportunity %s: %w", o.OpportunityId.Value(), err)
			}
		}
		return repo, nil
	default:
		repo := memory.NewOpportunityRepository()
		for _, o := range opportunities {
			repo.Upsert(o)
		}
		return repo, nil
	}
}

// newDeps builds a production pipeline.Deps: non-deterministic UUID ids,
// the system clock, and an AuditLog persisted to auditLogPath (empty means
// in-memory only, the run's events are lost when the process exits).
func newDeps(auditLogPath string) (pipeline.Deps, error) {
	var log audit.AuditLog
	if auditLogPath == "" {
		log = audit.NewMemoryAuditLog()
	} else {
		fileLog, err := audit.NewFileAuditLog(auditLogPath)
		if err != nil {
			return pipeline.Deps{}, err
		}
		log = fileLog
	}
	return pipeline.Deps{
		IdGen: ids.NewUUIDGenerator(),
		Clock: ids.NewSystemClock(),
		Audit: log,
	}, nil
}

// defaultConstitution is the CLI's base rule set: the eight named rules of
// spec.md §4.5, the same base set mcp-serve hands to pkg/mcpserver
// through buildConstitution.
func defaultConstitution() validation.Constitution {
	return rules.Default()
}

// buildConstitution starts from defaultConstitution and appends any
// operator-declared CEL rules from cfg.Validation.CELRules and, when
// cfg.Validation.PolicyBundleDir is set, every enabled rule across the
// bundle files in that directory (pkg/policyloader), compiling each once
// at startup so a malformed expression fails the command immediately
// rather than surfacing mid-pipeline. A cfg with neither configured
// returns defaultConstitution unchanged.
func buildConstitution(cfg *config.Config) (validation.Constitution, error) {
	base := defaultConstitution()
	if cfg == nil || (len(cfg.Validation.CELRules) == 0 && cfg.Validation.PolicyBundleDir == "") {
		return base, nil
	}

	reg, err := cel.NewRegistry()
	if err != nil {
		return validation.Constitution{}, fmt.Errorf("cel registry: %w", err)
	}

	builder := validation.NewBuilder(base.Id, base.Version)
	for _, r := range base.Rules {
		builder = builder.With(r)
	}

	specs := make([]cel.Spec, 0, len(cfg.Validation.CELRules))
	for _, spec := range cfg.Validation.CELRules {
		specs = append(specs, cel.Spec{
			Id:          spec.Id,
			Version:     spec.Version,
			Description: spec.Description,
			Expression:  spec.Expression,
			Severity:    validation.Severity(spec.Severity),
			Message:     spec.Message,
		})
	}

	if cfg.Validation.PolicyBundleDir != "" {
		loader := policyloader.NewLoader(cfg.Validation.PolicyBundleDir)
		if err := loader.LoadAll(); err != nil {
			return validation.Constitution{}, fmt.Errorf("load policy bundles: %w", err)
		}
		specs = append(specs, loader.ActiveSpecs(base.Version)...)
	}

	for _, spec := range specs {
		rule, err := reg.Rule(spec)
		if err != nil {
			return validation.Constitution{}, fmt.Errorf("cel rule %s: %w", spec.Id, err)
		}
		builder = builder.With(rule)
	}
	return builder.Build(), nil
}

// openDecisionStore opens a JSON-Lines decision.Store at path, or an
// in-memory one when path is empty (decisions vanish when the process
// exits — fine for a one-shot `match` whose caller only wants the printed
// JSON, not useful across separate `decision get`/`decision list` calls).
func openDecisionStore(path string) (decision.Store, error) {
	if path == "" {
		return decision.NewMemoryStore(), nil
	}
	return decision.NewFileStore(path)
}

// openRunStore opens a JSON-snapshot indexbuild.RunStore at path, or an
// in-memory one when path is empty.
func openRunStore(path string) (indexbuild.RunStore, error) {
	if path == "" {
		return indexbuild.NewMemoryRunStore(), nil
	}
	return indexbuild.NewFileRunStore(path)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
