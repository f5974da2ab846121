package core

import (
	"context"

	"clonetrack/internal/blob"
	"clonetrack/internal/infra/persistence/memory"
	"clonetrack/internal/tabular"
	"clonetrack/internal/workbook"
	"clonetrack/pkg/domain"
)

// Service exposes the workflow operations on top of a persistent store and a
// workbook. Each mutation runs inside a store transaction on a working copy
// of the project, so a failed ingestion leaves no partial state.
type Service struct {
	serviceOptions
	store  PersistentStore
	engine *RulesEngine
}

// NewService constructs a service backed by the supplied store. Without
// WithWorkbook, templates go to an in-memory xlsx workbook.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.workbook == nil {
		o.workbook = workbook.New(blob.NewMemory(), tabular.FormatXLSX)
	}
	return &Service{serviceOptions: o, store: store, engine: extractRulesEngine(store)}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// WithWorkbook sets where templates, results and exports are stored.
func WithWorkbook(wb *workbook.Workbook) ServiceOption {
	return func(o *serviceOptions) {
		if wb != nil {
			o.workbook = wb
		}
	}
}

type rulesEngineProvider interface {
	RulesEngine() *RulesEngine
}

func extractRulesEngine(store PersistentStore) *RulesEngine {
	if p, ok := store.(rulesEngineProvider); ok {
		return p.RulesEngine()
	}
	return nil
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Workbook returns the workbook used for templates and exports.
func (s *Service) Workbook() *workbook.Workbook { return s.workbook }

// RulesEngine returns the engine evaluated at commit, if the store exposes one.
func (s *Service) RulesEngine() *RulesEngine { return s.engine }

// GetProject returns a copy of the named project.
func (s *Service) GetProject(name string) (*Project, bool) { return s.store.GetProject(name) }

// ListProjects returns copies of all projects.
func (s *Service) ListProjects() []*Project { return s.store.ListProjects() }

func (s *Service) project(name string) (*Project, error) {
	p, ok := s.store.GetProject(name)
	if !ok {
		return nil, domain.NotFoundError{Entity: EntityProject, ID: name}
	}
	return p, nil
}

// CreateProject persists a new, empty primary project.
func (s *Service) CreateProject(ctx context.Context, name string) (*Project, Result, error) {
	var created *Project
	var res Result
	err := s.observe(ctx, "create_project", name, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			created, err = tx.CreateProject(domain.NewProject(name))
			return err
		})
		return name, err
	})
	return created, res, err
}

// CreateConjugationProject persists the conjugation variant of parent.
func (s *Service) CreateConjugationProject(ctx context.Context, parent string) (*Project, Result, error) {
	var created *Project
	var res Result
	err := s.observe(ctx, "create_conjugation_project", parent, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			created, err = createConjugation(tx, parent)
			return err
		})
		return parent + domain.ConjugationSuffix, err
	})
	return created, res, err
}

func createConjugation(tx Transaction, parent string) (*Project, error) {
	p, ok := tx.FindProject(parent)
	if !ok {
		return nil, domain.NotFoundError{Entity: EntityProject, ID: parent}
	}
	if err := requireKind(p, domain.ProjectPrimary); err != nil {
		return nil, err
	}
	return tx.CreateProject(domain.NewConjugationProject(parent))
}

// DeleteProject removes a project. A primary project whose conjugation
// project still exists is refused with DependentProjectError.
func (s *Service) DeleteProject(ctx context.Context, name string) (Result, error) {
	var res Result
	err := s.observe(ctx, "delete_project", name, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if child, ok := tx.FindProject(name + domain.ConjugationSuffix); ok && child.Parent == name {
				return domain.DependentProjectError{Project: name, Dependent: child.Name}
			}
			return tx.DeleteProject(name)
		})
		return name, err
	})
	return res, err
}

// writeTemplate builds a table from the committed project and stores it
// under name (or the default name for kind). Existing files are never replaced.
func (s *Service) writeTemplate(ctx context.Context, op, projectName, name string, kind workbook.Kind, build func(*Project) (*tabular.Table, error)) (string, error) {
	file := s.workbook.Resolve(name, projectName, kind)
	err := s.observe(ctx, op, projectName, func(ctx context.Context) (string, error) {
		exists, err := s.workbook.Exists(ctx, file)
		if err != nil {
			return file, err
		}
		if exists {
			return file, domain.TemplateAlreadyExistsError{Name: file}
		}
		p, err := s.project(projectName)
		if err != nil {
			return file, err
		}
		t, err := build(p)
		if err != nil {
			return file, err
		}
		if _, err := s.workbook.Write(ctx, file, t, map[string]string{"project": projectName, "operation": op}); err != nil {
			return file, err
		}
		s.logger.Info("template written", "project", projectName, "file", file, "rows", t.Len())
		return file, nil
	})
	return file, err
}

// ingest reads a filled sheet and applies it to the project inside one transaction.
func (s *Service) ingest(ctx context.Context, op, projectName, name string, kind workbook.Kind, apply func(tx Transaction, p *Project, t *tabular.Table) (IngestSummary, error)) (IngestSummary, Result, error) {
	return s.ingestWith(ctx, op, projectName, name, kind, nil, apply)
}

// ingestWith runs prepare, when set, in the ingest transaction before the
// project is updated, so anything it creates is discarded with a failed sheet.
func (s *Service) ingestWith(ctx context.Context, op, projectName, name string, kind workbook.Kind, prepare func(tx Transaction) error, apply func(tx Transaction, p *Project, t *tabular.Table) (IngestSummary, error)) (IngestSummary, Result, error) {
	var summary IngestSummary
	var res Result
	file := s.workbook.Resolve(name, projectName, kind)
	err := s.observe(ctx, op, projectName, func(ctx context.Context) (string, error) {
		t, err := s.workbook.Read(ctx, file)
		if err != nil {
			return file, err
		}
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if prepare != nil {
				if err := prepare(tx); err != nil {
					return err
				}
			}
			_, err := tx.UpdateProject(projectName, func(p *Project) error {
				var err error
				summary, err = apply(tx, p, t)
				return err
			})
			return err
		})
		if err != nil {
			summary = IngestSummary{}
			return file, err
		}
		s.logResult(op, res)
		s.logger.Info("sheet ingested", "project", projectName, "file", file,
			"created", summary.Created, "duplicates", summary.Duplicates,
			"updated", summary.Updated, "unchanged", summary.Unchanged)
		return file, nil
	})
	return summary, res, err
}

// GenerateConstructTemplate writes the construct input form.
func (s *Service) GenerateConstructTemplate(ctx context.Context, project, name string, opts ConstructTemplateOptions) (string, error) {
	return s.writeTemplate(ctx, "generate_construct_template", project, name, workbook.KindConstructs, func(p *Project) (*tabular.Table, error) {
		return ConstructTemplate(p, opts), nil
	})
}

// ImportConstructs ingests the construct form. Created counts new constructs,
// Duplicates the identifiers that were already present.
func (s *Service) ImportConstructs(ctx context.Context, project, name string) (IngestSummary, Result, error) {
	return s.ingest(ctx, "import_constructs", project, name, workbook.KindConstructs, func(_ Transaction, p *Project, t *tabular.Table) (IngestSummary, error) {
		return IngestConstructs(p, t)
	})
}

// GenerateTransformationTemplate writes the transformation result form.
func (s *Service) GenerateTransformationTemplate(ctx context.Context, project, name string) (string, error) {
	return s.writeTemplate(ctx, "generate_transformation_template", project, name, workbook.KindTransformation, TransformationTemplate)
}

// IngestTransformation creates clones from transformation results.
func (s *Service) IngestTransformation(ctx context.Context, project, name string) (IngestSummary, Result, error) {
	return s.ingest(ctx, "ingest_transformation", project, name, workbook.KindTransformation, func(_ Transaction, p *Project, t *tabular.Table) (IngestSummary, error) {
		return IngestTransformation(p, t)
	})
}

// GeneratePCRTemplate writes the colony PCR form.
func (s *Service) GeneratePCRTemplate(ctx context.Context, project, name string, opts ScreeningOptions) (string, error) {
	return s.writeTemplate(ctx, "generate_pcr_template", project, name, workbook.KindPCR, func(p *Project) (*tabular.Table, error) {
		return PCRTemplate(p, opts)
	})
}

// IngestPCR records colony PCR results.
func (s *Service) IngestPCR(ctx context.Context, project, name string) (IngestSummary, Result, error) {
	return s.ingest(ctx, "ingest_pcr", project, name, workbook.KindPCR, func(_ Transaction, p *Project, t *tabular.Table) (IngestSummary, error) {
		return IngestPCR(p, t)
	})
}

// GenerateSequencingTemplate writes the sequencing form.
func (s *Service) GenerateSequencingTemplate(ctx context.Context, project, name string, opts SequencingOptions) (string, error) {
	return s.writeTemplate(ctx, "generate_seq_template", project, name, workbook.KindSequencing, func(p *Project) (*tabular.Table, error) {
		return SequencingTemplate(p, opts)
	})
}

// IngestSequencing records sequencing results.
func (s *Service) IngestSequencing(ctx context.Context, project, name string) (IngestSummary, Result, error) {
	return s.ingest(ctx, "ingest_seq", project, name, workbook.KindSequencing, func(_ Transaction, p *Project, t *tabular.Table) (IngestSummary, error) {
		return IngestSequencing(p, t)
	})
}

// GenerateConjugationTemplate writes the conjugation run sheet for parent,
// named after its conjugation project.
func (s *Service) GenerateConjugationTemplate(ctx context.Context, parent, name string, opts ConjugationOptions) (string, error) {
	conj := parent + domain.ConjugationSuffix
	file := s.workbook.Resolve(name, conj, workbook.KindConjugation)
	return s.writeTemplate(ctx, "generate_conjugation_template", parent, file, workbook.KindConjugation, func(p *Project) (*tabular.Table, error) {
		return ConjugationTemplate(p, opts)
	})
}

// IngestConjugation creates conjugation clones, creating the conjugation
// project on first use.
func (s *Service) IngestConjugation(ctx context.Context, parent, name string) (IngestSummary, Result, error) {
	conj := parent + domain.ConjugationSuffix
	prepare := func(tx Transaction) error {
		if _, ok := tx.FindProject(conj); ok {
			return nil
		}
		_, err := createConjugation(tx, parent)
		return err
	}
	return s.ingestWith(ctx, "ingest_conjugation", conj, name, workbook.KindConjugationResults, prepare, func(tx Transaction, p *Project, t *tabular.Table) (IngestSummary, error) {
		source, ok := tx.FindProject(parent)
		if !ok {
			return IngestSummary{}, domain.NotFoundError{Entity: EntityProject, ID: parent}
		}
		return IngestConjugation(p, source, t)
	})
}

// GenerateGrowthTemplate writes the growth experiment form for a conjugation project.
func (s *Service) GenerateGrowthTemplate(ctx context.Context, project, name string, opts ScreeningOptions) (string, error) {
	return s.writeTemplate(ctx, "generate_growth_template", project, name, workbook.KindGrowth, func(p *Project) (*tabular.Table, error) {
		return GrowthTemplate(p, opts)
	})
}

// IngestGrowth records growth results.
func (s *Service) IngestGrowth(ctx context.Context, project, name string) (IngestSummary, Result, error) {
	return s.ingest(ctx, "ingest_growth", project, name, workbook.KindGrowth, func(_ Transaction, p *Project, t *tabular.Table) (IngestSummary, error) {
		return IngestGrowth(p, t)
	})
}

// Validated returns the flattened rows of clones passing preds, sampled per
// construct when sampleSize > 0.
func (s *Service) Validated(ctx context.Context, project string, preds Predicates, sampleSize int) (*tabular.Table, error) {
	var out *tabular.Table
	err := s.observe(ctx, "get_validated", project, func(context.Context) (string, error) {
		p, err := s.project(project)
		if err != nil {
			return project, err
		}
		out, err = ValidatedTable(p, preds, sampleSize, s.sampler)
		return project, err
	})
	return out, err
}

// StoreClones assigns storage wells to clones passing preds.
func (s *Service) StoreClones(ctx context.Context, project string, preds Predicates, maxPerConstruct int) (StorageSummary, Result, error) {
	var summary StorageSummary
	var res Result
	err := s.observe(ctx, "store_clones", project, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			_, err := tx.UpdateProject(project, func(p *Project) error {
				var err error
				summary, err = AllocateStorage(p, preds, maxPerConstruct)
				return err
			})
			return err
		})
		if err != nil {
			return project, err
		}
		s.logResult("store_clones", res)
		s.logger.Info("storage assigned", "project", project, "predicates", preds.String(), "stored", summary.Stored, "plates", summary.Plates)
		return project, nil
	})
	return summary, res, err
}

// Export writes the flattened project to name (default <project>.<ext>).
func (s *Service) Export(ctx context.Context, project, name string) (string, error) {
	return s.writeTemplate(ctx, "export_project", project, name, workbook.KindExport, func(p *Project) (*tabular.Table, error) {
		return Flatten(p), nil
	})
}

// ExportSnapshot writes the project tree as YAML (default <project>.yaml).
func (s *Service) ExportSnapshot(ctx context.Context, project, name string) (string, error) {
	file := name
	if file == "" {
		file = project + ".yaml"
	}
	err := s.observe(ctx, "export_snapshot", project, func(ctx context.Context) (string, error) {
		p, err := s.project(project)
		if err != nil {
			return file, err
		}
		data, err := MarshalSnapshotYAML(p)
		if err != nil {
			return file, err
		}
		_, err = s.workbook.WriteRaw(ctx, file, "application/yaml", data)
		return file, err
	})
	return file, err
}

// RemoveWorkbook deletes a stored template or export so it can be regenerated.
func (s *Service) RemoveWorkbook(ctx context.Context, name string) (bool, error) {
	var removed bool
	err := s.observe(ctx, "remove_workbook", "", func(ctx context.Context) (string, error) {
		var err error
		removed, err = s.workbook.Remove(ctx, name)
		return name, err
	})
	return removed, err
}

// PutWorkbook uploads a filled-in sheet. With replace, a file of the same
// name is removed first; otherwise an existing file is an error.
func (s *Service) PutWorkbook(ctx context.Context, name string, data []byte, replace bool) error {
	return s.observe(ctx, "put_workbook", "", func(ctx context.Context) (string, error) {
		if replace {
			if _, err := s.workbook.Remove(ctx, name); err != nil {
				return name, err
			}
		}
		_, err := s.workbook.WriteRaw(ctx, name, s.workbook.ContentTypeOf(name), data)
		return name, err
	})
}
