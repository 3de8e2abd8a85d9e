package fixture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/fixkit/errors"
	"github.com/kbukum/fixkit/factory"
	"github.com/kbukum/fixkit/logger"
	"github.com/kbukum/fixkit/observability"
	"github.com/kbukum/fixkit/orm"
	"github.com/kbukum/fixkit/query"
	"github.com/kbukum/fixkit/validation"
)

// Module is the fixture manager for one database connection. It persists
// entities through the ORM's unit-of-work, remembers what it created, and
// answers questions about what is in the database.
type Module struct {
	name      string
	db        *orm.DB
	factories *factory.Registry
	registry  *Registry
	log       *logger.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex
	cfg      Config
	session  *orm.Session
	started  bool
	scenario string
}

// New creates a fixture module. The module is inert until Start.
func New(db *orm.DB, factories *factory.Registry, cfg Config, log *logger.Logger) *Module {
	if factories == nil {
		factories = factory.NewRegistry()
	}
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()

	metrics, err := observability.DefaultMetrics()
	if err != nil {
		log.Warn("fixture metrics disabled", logger.ErrorFields("init_metrics", err))
		metrics = nil
	}

	return &Module{
		name:      "fixtures",
		db:        db,
		factories: factories,
		registry:  NewRegistry(),
		log:       log.WithComponent("fixtures"),
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Factories returns the factory registry so suites can register data
// creators after construction.
func (m *Module) Factories() *factory.Registry { return m.factories }

// Registry exposes the fixture registry for assertions on what was created.
func (m *Module) Registry() *Registry { return m.registry }

// guard returns the active session or a not-started error.
func (m *Module) guard() (*orm.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.session == nil {
		return nil, apperrors.NotStarted(m.name)
	}
	return m.session, nil
}

func (m *Module) maxDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.MaxJoinDepth
}

// Have builds an entity with the model's factory, applies overrides,
// persists it, and registers it as the model's latest fixture.
func (m *Module) Have(ctx context.Context, model string, overrides factory.Attrs) (interface{}, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanHave,
		trace.WithAttributes(observability.ModelAttr(model)))
	defer span.End()

	entity, err := m.factories.Build(model, overrides)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	if err := m.persistNew(ctx, entity); err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	m.recordOperation(ctx, "have", time.Since(start))
	return entity, nil
}

// HaveMany builds and persists count entities with the same overrides.
// Generated attributes still differ per entity through the factory sequence.
func (m *Module) HaveMany(ctx context.Context, model string, count int, overrides factory.Attrs) ([]interface{}, error) {
	if count <= 0 {
		return nil, apperrors.InvalidInput("count", "must be positive")
	}
	entities := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		entity, err := m.Have(ctx, model, overrides)
		if err != nil {
			return entities, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// HaveEntity persists a pre-built entity pointer and registers it. Use this
// when a test constructs the entity itself instead of going through a
// factory.
func (m *Module) HaveEntity(ctx context.Context, entity interface{}) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanHave,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(entity))))
	defer span.End()

	if err := m.persistNew(ctx, entity); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	m.recordOperation(ctx, "have_entity", time.Since(start))
	return nil
}

func (m *Module) persistNew(ctx context.Context, entity interface{}) error {
	sess, err := m.guard()
	if err != nil {
		return err
	}

	m.mu.Lock()
	validate := m.cfg.ValidateEntities
	m.mu.Unlock()
	if validate {
		if err := validation.Validate(entity); err != nil {
			return err
		}
	}

	table, err := orm.TableName(entity)
	if err != nil {
		return err
	}
	if err := sess.WithContext(ctx).Create(entity).Error; err != nil {
		return orm.FromDatabase(err, orm.ModelName(entity))
	}
	id, err := orm.PrimaryKeyString(entity)
	if err != nil {
		return err
	}

	m.registry.Put(table, id, entity)
	if m.metrics != nil {
		m.metrics.RecordFixtureCreated(ctx, table)
	}
	m.log.Debug("fixture created", logger.Fields(
		logger.FieldModel, table,
		logger.FieldEntityID, id,
	))
	return nil
}

// Latest returns the most recently created fixture for the model type.
func (m *Module) Latest(model interface{}) (interface{}, bool) {
	table, err := orm.TableName(model)
	if err != nil {
		return nil, false
	}
	return m.registry.Latest(table)
}

// Created returns the fixture created for the model type under the given
// primary key.
func (m *Module) Created(model interface{}, id string) (interface{}, bool) {
	table, err := orm.TableName(model)
	if err != nil {
		return nil, false
	}
	return m.registry.Get(table, id)
}

// GrabEntity loads the single entity matching criteria into dest, a struct
// pointer. Returns a not-found error when nothing matches.
func (m *Module) GrabEntity(ctx context.Context, dest interface{}, criteria map[string]interface{}) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanGrab,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(dest))))
	defer span.End()

	sess, err := m.guard()
	if err != nil {
		return err
	}

	q, depth, err := query.ApplyMap(sess.WithContext(ctx), dest, criteria, m.maxDepth())
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	m.recordQuery(ctx, dest, depth)

	if err := q.First(dest).Error; err != nil {
		err = orm.FromDatabase(err, orm.ModelName(dest))
		observability.SetSpanError(ctx, err)
		return err
	}

	m.mu.Lock()
	register := m.cfg.GrabRegistersEntities
	m.mu.Unlock()
	if register {
		if table, terr := orm.TableName(dest); terr == nil {
			if id, ierr := orm.PrimaryKeyString(dest); ierr == nil {
				m.registry.Put(table, id, dest)
			}
		}
	}

	m.recordOperation(ctx, "grab_entity", time.Since(start))
	return nil
}

// GrabEntities loads every entity matching criteria into dest, a pointer to
// a slice of structs or struct pointers. An empty result is not an error.
func (m *Module) GrabEntities(ctx context.Context, dest interface{}, criteria map[string]interface{}) error {
	start := time.Now()

	model, err := sliceModel(dest)
	if err != nil {
		return err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanGrab,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(model))))
	defer span.End()

	sess, err := m.guard()
	if err != nil {
		return err
	}

	q, depth, err := query.ApplyMap(sess.WithContext(ctx), model, criteria, m.maxDepth())
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	m.recordQuery(ctx, model, depth)

	if err := q.Find(dest).Error; err != nil {
		err = orm.FromDatabase(err, orm.ModelName(model))
		observability.SetSpanError(ctx, err)
		return err
	}

	m.recordOperation(ctx, "grab_entities", time.Since(start))
	return nil
}

// GrabField returns one column value from the first entity matching
// criteria. The field may be a column name or the Go field name of the
// model.
func (m *Module) GrabField(ctx context.Context, model interface{}, field string, criteria map[string]interface{}) (interface{}, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanGrab,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(model))))
	defer span.End()

	sess, err := m.guard()
	if err != nil {
		return nil, err
	}

	sch, err := orm.Metadata(model)
	if err != nil {
		return nil, err
	}
	f := sch.LookUpField(field)
	if f == nil || f.DBName == "" {
		err := apperrors.InvalidPath(field, fmt.Sprintf("%s has no column %q", sch.Name, field))
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	q, depth, err := query.ApplyMap(sess.WithContext(ctx), model, criteria, m.maxDepth())
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	m.recordQuery(ctx, model, depth)

	var value interface{}
	row := q.Select(sch.Table + "." + f.DBName).Limit(1).Row()
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.NotFound(orm.ModelName(model))
		} else {
			err = orm.FromDatabase(err, orm.ModelName(model))
		}
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	m.recordOperation(ctx, "grab_field", time.Since(start))
	return value, nil
}

// Count returns how many entities match criteria.
func (m *Module) Count(ctx context.Context, model interface{}, criteria map[string]interface{}) (int64, error) {
	sess, err := m.guard()
	if err != nil {
		return 0, err
	}

	q, depth, err := query.ApplyMap(sess.WithContext(ctx), model, criteria, m.maxDepth())
	if err != nil {
		return 0, err
	}
	m.recordQuery(ctx, model, depth)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, orm.FromDatabase(err, orm.ModelName(model))
	}
	return count, nil
}

// Refresh reloads the entity's current database state into the same struct,
// discarding unsaved in-memory changes.
func (m *Module) Refresh(ctx context.Context, entity interface{}) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanRefresh,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(entity))))
	defer span.End()

	sess, err := m.guard()
	if err != nil {
		return err
	}

	col, val, isZero, err := orm.PrimaryKey(entity)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	if isZero {
		err := apperrors.InvalidInput("entity", "cannot refresh an entity without a primary key")
		observability.SetSpanError(ctx, err)
		return err
	}

	if err := sess.WithContext(ctx).Where(fmt.Sprintf("%s = ?", col), val).First(entity).Error; err != nil {
		err = orm.FromDatabase(err, orm.ModelName(entity))
		observability.SetSpanError(ctx, err)
		return err
	}

	m.recordOperation(ctx, "refresh", time.Since(start))
	return nil
}

// Persist writes the entity's in-memory changes to the database. New
// entities are created, existing ones updated.
func (m *Module) Persist(ctx context.Context, entity interface{}) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanPersist,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(entity))))
	defer span.End()

	sess, err := m.guard()
	if err != nil {
		return err
	}

	if err := sess.WithContext(ctx).Save(entity).Error; err != nil {
		err = orm.FromDatabase(err, orm.ModelName(entity))
		observability.SetSpanError(ctx, err)
		return err
	}

	m.recordOperation(ctx, "persist", time.Since(start))
	return nil
}

// Flush forces everything written in the current scenario down to the
// database without committing it, so raw SQL issued by the code under test
// observes the fixtures. Outside a scenario transaction writes are already
// durable and Flush is a no-op.
func (m *Module) Flush(ctx context.Context) error {
	sess, err := m.guard()
	if err != nil {
		return err
	}
	if !sess.InTransaction() {
		return nil
	}
	return sess.Flush(ctx)
}

// Clear wipes the fixture registry and discards the scenario's pending
// writes. When a scenario is active a fresh transaction is opened so
// subsequent fixtures still roll back at scenario end.
func (m *Module) Clear(ctx context.Context) error {
	sess, err := m.guard()
	if err != nil {
		return err
	}

	m.registry.Clear()
	if err := sess.Rollback(); err != nil {
		return err
	}

	m.mu.Lock()
	reopen := m.scenario != "" && m.cfg.CleanupEnabled()
	m.mu.Unlock()
	if reopen {
		return sess.Begin(ctx)
	}
	return nil
}

// Reconfigure clears the module's state and applies a new configuration.
func (m *Module) Reconfigure(ctx context.Context, cfg Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := m.Clear(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	m.log.Debug("fixture module reconfigured")
	return nil
}

// --- internals ---

func (m *Module) recordOperation(ctx context.Context, op string, d time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordOperation(ctx, op, d)
	}
}

func (m *Module) recordQuery(ctx context.Context, model interface{}, depth int) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.Int(observability.AttrJoinDepth, depth))
	}
	if m.metrics != nil {
		if table, err := orm.TableName(model); err == nil {
			m.metrics.RecordQueryBuilt(ctx, table, depth)
		}
	}
}

// sliceModel returns a fresh instance of the element type of *[]T or *[]*T.
func sliceModel(dest interface{}) (interface{}, error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, apperrors.InvalidInput("dest", "must be a non-nil pointer to a slice")
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Slice {
		return nil, apperrors.InvalidInput("dest", "must point to a slice")
	}
	t := elem.Type().Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, apperrors.InvalidInput("dest", "slice elements must be structs")
	}
	return reflect.New(t).Interface(), nil
}
